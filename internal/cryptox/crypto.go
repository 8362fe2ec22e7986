// Package cryptox contains the low-level cryptographic primitives used by
// the vault: PBKDF2 key derivation, AES-GCM field encryption, the PIN digest,
// and the deliberately weak XOR transform for the session PIN.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeyIterations is the PBKDF2 iteration count. The PIN space is only
	// 4-6 digits, so the iterated derivation is the primary defense
	// against offline brute force of exfiltrated ciphertext.
	KeyIterations = 100_000

	// KeySize is the derived AES-256 key length in bytes.
	KeySize = 32

	// SaltSize is the per-record key-derivation salt length in bytes.
	SaltSize = 16

	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12
)

// DigestPin returns the unsalted SHA-256 hex digest of the PIN.
//
// This digest only gates the unlock prompt; it is fast and unsalted, so an
// attacker who exfiltrates it can brute-force a 4-6 digit PIN trivially.
// Record confidentiality does not rest on it: ciphertext keys go through
// DeriveKey, which is slow by construction.
func DigestPin(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// DeriveKey stretches the PIN and a record-specific salt into an AES-256 key
// using PBKDF2-HMAC-SHA256.
func DeriveKey(pin string, salt []byte) []byte {
	return pbkdf2.Key([]byte(pin), salt, KeyIterations, KeySize, sha256.New)
}

// SealField encrypts a single plaintext field with AES-256-GCM and returns
// the ciphertext (with the 16-byte tag appended) as base64.
func SealField(plaintext string, key, nonce []byte) (string, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	ct := aesgcm.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ct), nil
}

// OpenField decrypts a base64 field produced by SealField. Any failure,
// whether malformed input or a tag mismatch, is reported as
// common.ErrDecryption; corrupted plaintext is never returned.
func OpenField(encoded string, key, nonce []byte) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64: %v", common.ErrDecryption, err)
	}
	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	pt, err := aesgcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return string(pt), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return aesgcm, nil
}

// Obfuscate encodes s by XOR-ing it with a repeating non-secret key and
// returns the result as hex. This is NOT encryption: the key is stable and
// recoverable, and the transform exists only so the session PIN is not
// stored as a cleartext column. Reversible with Deobfuscate.
func Obfuscate(s string, key []byte) string {
	b := []byte(s)
	for i := range b {
		b[i] ^= key[i%len(key)]
	}
	return hex.EncodeToString(b)
}

// Deobfuscate reverses Obfuscate.
func Deobfuscate(encoded string, key []byte) (string, error) {
	b, err := hex.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid obfuscated value: %w", err)
	}
	for i := range b {
		b[i] ^= key[i%len(key)]
	}
	return string(b), nil
}
