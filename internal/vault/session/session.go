// Package session implements the time-bounded unlock state.
//
// The state machine is Locked -> Unlocked -> Locked; there are no other
// states. While unlocked, the session row holds the PIN in an obfuscated,
// persisted form so the vault survives UI restarts without re-prompting.
//
// The obfuscation key is stable and non-secret: a forged session row grants
// an attacker exactly the PIN string in near-plaintext form. This is an
// accepted weaker tier than the record encryption and is documented as such;
// record ciphertext still requires the full PBKDF2 derivation per record.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/dmitrijs2005/pinvault/internal/cryptox"
	"github.com/dmitrijs2005/pinvault/internal/logging"
	"github.com/dmitrijs2005/pinvault/internal/storage"
)

// DefaultTTL is how long an unlock lasts without activity.
const DefaultTTL = 30 * time.Minute

// row is the persisted session shape: {"expiry": unix-millis, "ep": hex}.
type row struct {
	Expiry int64  `json:"expiry"`
	EP     string `json:"ep"`
}

// Manager owns the persisted unlock session.
type Manager struct {
	kv  storage.KV
	log logging.Logger
	ttl time.Duration

	// now is a test seam for wall-clock time.
	now func() time.Time
}

func NewManager(kv storage.KV, log logging.Logger, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		kv:  kv,
		log: log.With("component", "session"),
		ttl: ttl,
		now: time.Now,
	}
}

// Unlock persists a fresh session for an already-verified PIN. Callers must
// have checked the PIN against the enrolled digest first.
func (m *Manager) Unlock(ctx context.Context, pin string) error {
	key, err := m.installKey(ctx)
	if err != nil {
		return err
	}

	r := row{
		Expiry: m.now().Add(m.ttl).UnixMilli(),
		EP:     cryptox.Obfuscate(pin, key),
	}
	if err := m.persist(ctx, r); err != nil {
		return err
	}

	m.log.Info(ctx, "vault unlocked", "ttl", m.ttl.String())
	return nil
}

// CurrentPin returns the session PIN if the session is still valid.
// A session is valid iff now < expiry; an expired or absent session yields
// common.ErrSessionExpired, and an expired row is deleted on detection.
func (m *Manager) CurrentPin(ctx context.Context) (string, error) {
	r, err := m.read(ctx)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", common.ErrSessionExpired
	}

	if m.now().UnixMilli() >= r.Expiry {
		if err := m.kv.Delete(ctx, storage.KeySession); err != nil {
			m.log.Warn(ctx, "failed to delete expired session", "error", err)
		}
		return "", common.ErrSessionExpired
	}

	key, err := m.installKey(ctx)
	if err != nil {
		return "", err
	}
	pin, err := cryptox.Deobfuscate(r.EP, key)
	if err != nil {
		return "", fmt.Errorf("unreadable session: %w", err)
	}
	return pin, nil
}

// Extend pushes the expiry forward, keeping the same obfuscated PIN.
// Returns common.ErrSessionExpired when there is no live session to extend.
func (m *Manager) Extend(ctx context.Context) error {
	r, err := m.read(ctx)
	if err != nil {
		return err
	}
	if r == nil || m.now().UnixMilli() >= r.Expiry {
		return common.ErrSessionExpired
	}

	r.Expiry = m.now().Add(m.ttl).UnixMilli()
	return m.persist(ctx, *r)
}

// Lock deletes the persisted session unconditionally. Idempotent.
func (m *Manager) Lock(ctx context.Context) error {
	if err := m.kv.Delete(ctx, storage.KeySession); err != nil {
		return err
	}
	m.log.Info(ctx, "vault locked")
	return nil
}

// StartAutoExtend refreshes the session on a fixed interval so a
// continuously active user is never re-prompted mid-task. It blocks until
// ctx is cancelled or the session expires, so run it in its own goroutine
// and cancel the context on lock/teardown.
func (m *Manager) StartAutoExtend(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.Extend(ctx); err != nil {
				m.log.Warn(ctx, "auto-extend stopped", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) read(ctx context.Context) (*row, error) {
	raw, err := m.kv.Get(ctx, storage.KeySession)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var r row
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("unreadable session: %w", err)
	}
	return &r, nil
}

func (m *Manager) persist(ctx context.Context, r row) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshalling session: %w", err)
	}
	return m.kv.Set(ctx, storage.KeySession, raw)
}

// installKey returns the non-secret obfuscation key, creating and persisting
// it on first use. It stays stable for the life of the installation.
func (m *Manager) installKey(ctx context.Context) ([]byte, error) {
	v, err := m.kv.Get(ctx, storage.KeyInstallID)
	if err != nil {
		return nil, err
	}
	if len(v) > 0 {
		return v, nil
	}

	id, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("generating install id: %w", err)
	}
	if err := m.kv.Set(ctx, storage.KeyInstallID, []byte(id)); err != nil {
		return nil, err
	}
	return []byte(id), nil
}
