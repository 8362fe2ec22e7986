// Package models defines the data types of the credential vault.
package models

// CredentialRecord is one saved site credential in its persisted form.
// Site, Username and Password hold base64 AEAD ciphertext once the record is
// encrypted; IV and Salt hold the per-record nonce and key-derivation salt in
// hex. A record with empty IV/Salt is a legacy plaintext record awaiting
// migration. Records are never mutated in place: an edit is delete+recreate
// with a new id, iv and salt.
type CredentialRecord struct {
	// ID is unique and monotonically increasing across the vault.
	ID int64 `json:"id"`

	Site     string `json:"site"`
	Username string `json:"username"`
	Password string `json:"password"`

	// IV is the per-record AES-GCM nonce, hex encoded.
	IV string `json:"iv,omitempty"`
	// Salt is the per-record key-derivation salt, hex encoded.
	Salt string `json:"salt,omitempty"`

	// Advisory metadata; stored unencrypted, never gates any security decision.
	Favicon     string             `json:"favicon,omitempty"`
	RiskScore   *float64           `json:"riskScore,omitempty"`
	RiskFactors map[string]float64 `json:"riskFactors,omitempty"`
}

// IsEncrypted reports whether the record carries the iv/salt pair of an
// encrypted record. Anything else is treated as legacy plaintext.
func (r CredentialRecord) IsEncrypted() bool {
	return r.IV != "" && r.Salt != ""
}

// PlainCredential is the decrypted projection handed to the UI layer.
// The ciphertext form never leaves the vault store.
type PlainCredential struct {
	ID       int64  `json:"id"`
	Site     string `json:"site"`
	Username string `json:"username"`
	Password string `json:"password"`

	Favicon     string             `json:"favicon,omitempty"`
	RiskScore   *float64           `json:"riskScore,omitempty"`
	RiskFactors map[string]float64 `json:"riskFactors,omitempty"`
}
