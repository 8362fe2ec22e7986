// Package crypto is the credential crypto engine: per-record key derivation
// plus authenticated encryption of the three credential fields.
package crypto

import (
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/dmitrijs2005/pinvault/internal/cryptox"
	"github.com/dmitrijs2005/pinvault/internal/vault/models"
)

// Engine encrypts and decrypts credential records with keys derived from the
// vault PIN. It is stateless and safe for concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// EncryptRecord encrypts the site, username and password of plain with a key
// derived from the PIN and a fresh per-record salt. The salt and IV are
// freshly random on every call and never reused: re-saving the same
// credential yields a different salt, IV and ciphertext each time.
//
// The same key/IV pair is reused across the three fields of one record; each
// field is encrypted exactly once per save and the IV never repeats across
// records. Advisory metadata passes through unencrypted. The record id is
// left for the caller to assign.
func (e *Engine) EncryptRecord(plain models.PlainCredential, pin string) (*models.CredentialRecord, error) {
	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	iv := common.GenerateRandByteArray(cryptox.NonceSize)

	key := cryptox.DeriveKey(pin, salt)
	defer common.WipeByteArray(key)

	site, err := cryptox.SealField(plain.Site, key, iv)
	if err != nil {
		return nil, fmt.Errorf("encrypting site: %w", err)
	}
	username, err := cryptox.SealField(plain.Username, key, iv)
	if err != nil {
		return nil, fmt.Errorf("encrypting username: %w", err)
	}
	password, err := cryptox.SealField(plain.Password, key, iv)
	if err != nil {
		return nil, fmt.Errorf("encrypting password: %w", err)
	}

	return &models.CredentialRecord{
		ID:          plain.ID,
		Site:        site,
		Username:    username,
		Password:    password,
		IV:          hex.EncodeToString(iv),
		Salt:        hex.EncodeToString(salt),
		Favicon:     plain.Favicon,
		RiskScore:   plain.RiskScore,
		RiskFactors: plain.RiskFactors,
	}, nil
}

// DecryptRecord recovers the key from the record's own salt and decrypts all
// three fields. Any single field failure aborts the whole record with
// common.ErrDecryption; partially decrypted data is never returned.
func (e *Engine) DecryptRecord(rec models.CredentialRecord, pin string) (*models.PlainCredential, error) {
	salt, err := hex.DecodeString(rec.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed salt: %v", common.ErrDecryption, err)
	}
	iv, err := hex.DecodeString(rec.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed iv: %v", common.ErrDecryption, err)
	}
	if len(iv) != cryptox.NonceSize {
		return nil, fmt.Errorf("%w: bad iv length %d", common.ErrDecryption, len(iv))
	}

	key := cryptox.DeriveKey(pin, salt)
	defer common.WipeByteArray(key)

	site, err := cryptox.OpenField(rec.Site, key, iv)
	if err != nil {
		return nil, err
	}
	username, err := cryptox.OpenField(rec.Username, key, iv)
	if err != nil {
		return nil, err
	}
	password, err := cryptox.OpenField(rec.Password, key, iv)
	if err != nil {
		return nil, err
	}

	return &models.PlainCredential{
		ID:          rec.ID,
		Site:        site,
		Username:    username,
		Password:    password,
		Favicon:     rec.Favicon,
		RiskScore:   rec.RiskScore,
		RiskFactors: rec.RiskFactors,
	}, nil
}
