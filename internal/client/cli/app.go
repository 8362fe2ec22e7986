// Package cli implements the interactive PinVault client: a small REPL that
// gates every vault operation behind the PIN session.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"os"

	"github.com/dmitrijs2005/pinvault/internal/client/config"
	"github.com/dmitrijs2005/pinvault/internal/events"
	"github.com/dmitrijs2005/pinvault/internal/logging"
	"github.com/dmitrijs2005/pinvault/internal/risk"
	"github.com/dmitrijs2005/pinvault/internal/storage"
	"github.com/dmitrijs2005/pinvault/internal/vault/crypto"
	"github.com/dmitrijs2005/pinvault/internal/vault/pin"
	"github.com/dmitrijs2005/pinvault/internal/vault/session"
	"github.com/dmitrijs2005/pinvault/internal/vault/store"

	_ "modernc.org/sqlite"
)

// maxUnlockAttempts bounds wrong-PIN retries within one unlock command.
// The counter lives in process memory only and resets on restart; it is a
// UX nudge, not a security control.
const maxUnlockAttempts = 3

type App struct {
	config   *config.Config
	pins     *pin.Manager
	sessions *session.Manager
	store    *store.Store
	scorer   risk.Scorer
	events   *events.Recorder
	log      logging.Logger
	reader   *bufio.Reader

	db *sql.DB

	// cancelExtend stops the auto-extend goroutine; nil while locked.
	cancelExtend context.CancelFunc
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	kv, db, err := storage.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	rec := events.NewRecorder(kv, log)

	return &App{
		config:   c,
		pins:     pin.NewManager(kv, log),
		sessions: session.NewManager(kv, log, c.SessionTTL),
		store:    store.New(kv, crypto.NewEngine(), rec, log),
		scorer:   risk.NewHTTPScorer(c.RiskEndpointAddr, log),
		events:   rec,
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
		db:       db,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close(ctx)
	a.Root(ctx)
}

// Close tears the app down: stops the auto-extend timer and closes the DB.
// The persisted session survives teardown so a restart within the TTL does
// not re-prompt.
func (a *App) Close(ctx context.Context) {
	a.stopAutoExtend()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(ctx, "error closing database", "error", err)
		}
	}
}

// isUnlocked reports whether a live session exists right now.
func (a *App) isUnlocked(ctx context.Context) bool {
	_, err := a.sessions.CurrentPin(ctx)
	return err == nil
}

func (a *App) startAutoExtend(ctx context.Context) {
	extendCtx, cancel := context.WithCancel(ctx)
	a.cancelExtend = cancel
	go a.sessions.StartAutoExtend(extendCtx, a.config.ExtendInterval)
}

func (a *App) stopAutoExtend() {
	if a.cancelExtend != nil {
		a.cancelExtend()
		a.cancelExtend = nil
	}
}
