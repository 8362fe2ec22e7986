// Package pin implements PIN enrollment and verification.
//
// The stored digest is a fast, unsalted SHA-256 hash: it only gates the
// unlock prompt and is kept bit-compatible with the original vault. There is
// no rate limiting here; an attempt counter, if any, belongs in the layer
// above.
package pin

import (
	"context"
	"crypto/subtle"
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/dmitrijs2005/pinvault/internal/cryptox"
	"github.com/dmitrijs2005/pinvault/internal/logging"
	"github.com/dmitrijs2005/pinvault/internal/storage"
)

// 4-6 digits, nothing else.
var pinFormat = regexp.MustCompile(`^[0-9]{4,6}$`)

// Manager handles the enrolled PIN digest.
type Manager struct {
	kv  storage.KV
	log logging.Logger
}

func NewManager(kv storage.KV, log logging.Logger) *Manager {
	return &Manager{kv: kv, log: log.With("component", "pin")}
}

// IsEnrolled reports whether a PIN digest exists in the store.
func (m *Manager) IsEnrolled(ctx context.Context) (bool, error) {
	v, err := m.kv.Get(ctx, storage.KeyPinHash)
	if err != nil {
		return false, err
	}
	return len(v) > 0, nil
}

// Enroll validates the PIN against the policy and persists its digest.
// Returns common.ErrInvalidPinFormat when the policy is not met.
func (m *Manager) Enroll(ctx context.Context, pin string) error {
	if !pinFormat.MatchString(pin) {
		return fmt.Errorf("%w: pin must be 4-6 digits", common.ErrInvalidPinFormat)
	}

	if err := m.kv.Set(ctx, storage.KeyPinHash, []byte(cryptox.DigestPin(pin))); err != nil {
		return fmt.Errorf("saving pin digest: %w", err)
	}

	m.log.Info(ctx, "pin enrolled")
	return nil
}

// Verify recomputes the digest of the candidate PIN and compares it against
// storedHash. Pure function, no side effects.
func (m *Manager) Verify(pin string, storedHash string) bool {
	candidate := cryptox.DigestPin(pin)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(storedHash)) == 1
}

// Authenticate loads the stored digest and verifies the candidate PIN
// against it. Returns common.ErrNotFound when no PIN is enrolled and
// common.ErrAuthenticationFailed on mismatch.
func (m *Manager) Authenticate(ctx context.Context, pin string) error {
	stored, err := m.kv.Get(ctx, storage.KeyPinHash)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		return fmt.Errorf("%w: no pin enrolled", common.ErrNotFound)
	}
	if !m.Verify(pin, string(stored)) {
		return common.ErrAuthenticationFailed
	}
	return nil
}
