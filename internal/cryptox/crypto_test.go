package cryptox

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/stretchr/testify/require"
)

func TestDigestPin_DeterministicHex(t *testing.T) {
	d1 := DigestPin("1234")
	d2 := DigestPin("1234")
	require.Equal(t, d1, d2)
	require.Len(t, d1, 64)

	// known SHA-256 of "1234"
	require.Equal(t, "03ac674216f3e15c761ee1a5e255f067953623c8b388b4459e13f978d7c846f4", d1)
	require.NotEqual(t, d1, DigestPin("1235"))
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := []byte("fixed-salt-16byt")

	key1 := DeriveKey("1234", salt)
	key2 := DeriveKey("1234", salt)
	require.Equal(t, key1, key2, "same inputs must give same key")
	require.Len(t, key1, KeySize)
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	salt := []byte("fixed-salt-16byt")

	require.NotEqual(t, DeriveKey("1234", salt), DeriveKey("5678", salt))
	require.NotEqual(t, DeriveKey("1234", salt), DeriveKey("1234", []byte("another-salt-16b")))
}

func TestSealOpenField_RoundTrip(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	nonce := common.GenerateRandByteArray(NonceSize)

	ct, err := SealField("s3cr3t!", key, nonce)
	require.NoError(t, err)
	require.NotEqual(t, "s3cr3t!", ct)

	pt, err := OpenField(ct, key, nonce)
	require.NoError(t, err)
	require.Equal(t, "s3cr3t!", pt)
}

func TestOpenField_WrongKeyFailsClosed(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	nonce := common.GenerateRandByteArray(NonceSize)

	ct, err := SealField("password", key, nonce)
	require.NoError(t, err)

	other := common.GenerateRandByteArray(KeySize)
	pt, err := OpenField(ct, other, nonce)
	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrDecryption))
	require.Empty(t, pt, "no plaintext may leak on failure")
}

func TestOpenField_TamperedCiphertextFailsClosed(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	nonce := common.GenerateRandByteArray(NonceSize)

	ct, err := SealField("password", key, nonce)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(ct)
	require.NoError(t, err)
	raw[0] ^= 0x01
	flipped := base64.StdEncoding.EncodeToString(raw)

	_, err = OpenField(flipped, key, nonce)
	require.True(t, errors.Is(err, common.ErrDecryption))
}

func TestOpenField_MalformedBase64(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	nonce := common.GenerateRandByteArray(NonceSize)

	_, err := OpenField("%%%not-base64%%%", key, nonce)
	require.True(t, errors.Is(err, common.ErrDecryption))
}

func TestObfuscate_RoundTripAndDeterminism(t *testing.T) {
	key := []byte("install-key")

	ep := Obfuscate("1234", key)
	require.NotEqual(t, "1234", ep)
	require.Equal(t, ep, Obfuscate("1234", key), "transform must be deterministic")

	pin, err := Deobfuscate(ep, key)
	require.NoError(t, err)
	require.Equal(t, "1234", pin)
}

func TestDeobfuscate_InvalidHex(t *testing.T) {
	_, err := Deobfuscate("zz-not-hex", []byte("k"))
	require.Error(t, err)
}
