// Package events keeps a bounded, persisted log of vault activity:
// a ring buffer of at most 500 entries, oldest dropped first.
// Entries are advisory diagnostics; no secret material is ever recorded.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/logging"
	"github.com/dmitrijs2005/pinvault/internal/storage"
	"github.com/google/uuid"
)

// MaxEntries caps the persisted log.
const MaxEntries = 500

// Entry is one logged event.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Event     string         `json:"event"`
	Context   map[string]any `json:"context,omitempty"`
}

// Recorder appends to and reads the persisted event log.
type Recorder struct {
	kv  storage.KV
	log logging.Logger

	// now is a test seam for wall-clock time.
	now func() time.Time
}

func NewRecorder(kv storage.KV, log logging.Logger) *Recorder {
	return &Recorder{
		kv:  kv,
		log: log.With("component", "events"),
		now: time.Now,
	}
}

// Append adds an entry to the log, dropping the oldest entries beyond the
// cap. Newest entries sit at the end of the persisted list.
func (r *Recorder) Append(ctx context.Context, event string, fields map[string]any) error {
	entries, err := r.List(ctx)
	if err != nil {
		return err
	}

	entries = append(entries, Entry{
		ID:        uuid.NewString(),
		Timestamp: r.now().UTC(),
		Event:     event,
		Context:   fields,
	})
	if len(entries) > MaxEntries {
		entries = entries[len(entries)-MaxEntries:]
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshalling event log: %w", err)
	}
	return r.kv.Set(ctx, storage.KeyEventLogs, raw)
}

// List returns all persisted entries, oldest first.
func (r *Recorder) List(ctx context.Context) ([]Entry, error) {
	raw, err := r.kv.Get(ctx, storage.KeyEventLogs)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// A corrupted log is not worth failing an operation over; start fresh.
		r.log.Warn(ctx, "event log unreadable, resetting", "error", err)
		return nil, nil
	}
	return entries, nil
}
