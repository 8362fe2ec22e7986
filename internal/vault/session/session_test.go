package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/dmitrijs2005/pinvault/internal/logging"
	"github.com/dmitrijs2005/pinvault/internal/storage"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, ttl time.Duration) (*Manager, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewManager(kv, log, ttl), kv
}

func TestUnlockThenCurrentPin(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, 30*time.Minute)

	require.NoError(t, m.Unlock(ctx, "1234"))

	pin, err := m.CurrentPin(ctx)
	require.NoError(t, err)
	require.Equal(t, "1234", pin)
}

func TestCurrentPin_AbsentSession(t *testing.T) {
	m, _ := newManager(t, 30*time.Minute)
	_, err := m.CurrentPin(context.Background())
	require.True(t, errors.Is(err, common.ErrSessionExpired))
}

func TestCurrentPin_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	m, kv := newManager(t, 30*time.Minute)

	start := time.Now()
	m.now = func() time.Time { return start }
	require.NoError(t, m.Unlock(ctx, "1234"))

	// one millisecond before expiry: still valid
	m.now = func() time.Time { return start.Add(30*time.Minute - time.Millisecond) }
	pin, err := m.CurrentPin(ctx)
	require.NoError(t, err)
	require.Equal(t, "1234", pin)

	// exactly at expiry: treated as absent and the row is deleted
	m.now = func() time.Time { return start.Add(30 * time.Minute) }
	_, err = m.CurrentPin(ctx)
	require.True(t, errors.Is(err, common.ErrSessionExpired))

	raw, err := kv.Get(ctx, storage.KeySession)
	require.NoError(t, err)
	require.Nil(t, raw, "expired session must be deleted on detection")
}

func TestExtend_RefreshesExpiryKeepsPin(t *testing.T) {
	ctx := context.Background()
	m, kv := newManager(t, 30*time.Minute)

	start := time.Now()
	m.now = func() time.Time { return start }
	require.NoError(t, m.Unlock(ctx, "4321"))

	var before struct {
		Expiry int64  `json:"expiry"`
		EP     string `json:"ep"`
	}
	raw, err := kv.Get(ctx, storage.KeySession)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &before))

	m.now = func() time.Time { return start.Add(10 * time.Minute) }
	require.NoError(t, m.Extend(ctx))

	var after struct {
		Expiry int64  `json:"expiry"`
		EP     string `json:"ep"`
	}
	raw, err = kv.Get(ctx, storage.KeySession)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &after))

	require.Greater(t, after.Expiry, before.Expiry)
	require.Equal(t, before.EP, after.EP, "extend keeps the same obfuscated pin")

	// still readable past the original expiry
	m.now = func() time.Time { return start.Add(35 * time.Minute) }
	pin, err := m.CurrentPin(ctx)
	require.NoError(t, err)
	require.Equal(t, "4321", pin)
}

func TestExtend_NoSession(t *testing.T) {
	m, _ := newManager(t, time.Minute)
	require.True(t, errors.Is(m.Extend(context.Background()), common.ErrSessionExpired))
}

func TestLock_Idempotent(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, time.Minute)

	require.NoError(t, m.Unlock(ctx, "1234"))
	require.NoError(t, m.Lock(ctx))
	require.NoError(t, m.Lock(ctx))

	_, err := m.CurrentPin(ctx)
	require.True(t, errors.Is(err, common.ErrSessionExpired))
}

func TestSession_PinNotStoredAsCleartext(t *testing.T) {
	ctx := context.Background()
	m, kv := newManager(t, time.Minute)

	require.NoError(t, m.Unlock(ctx, "1234"))

	raw, err := kv.Get(ctx, storage.KeySession)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "1234")
}

func TestInstallKey_StableAcrossUnlocks(t *testing.T) {
	ctx := context.Background()
	m, kv := newManager(t, time.Minute)

	require.NoError(t, m.Unlock(ctx, "1234"))
	first, err := kv.Get(ctx, storage.KeyInstallID)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	require.NoError(t, m.Lock(ctx))
	require.NoError(t, m.Unlock(ctx, "1234"))
	second, err := kv.Get(ctx, storage.KeyInstallID)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
