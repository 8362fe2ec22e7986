// Package common defines shared constants and sentinel errors used across
// PinVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrNotFound = errors.New("not found")
	ErrStorage  = errors.New("storage error")

	// Enrollment / input validation errors.
	ErrInvalidPinFormat = errors.New("invalid pin format")
	ErrValidation       = errors.New("validation error")

	// Auth errors.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// Session lifecycle errors.
	ErrSessionExpired = errors.New("session expired")

	// Crypto errors. A failed AEAD open is the tamper-detection signal:
	// wrong PIN and altered ciphertext are indistinguishable here.
	ErrDecryption = errors.New("decryption failed")
)
