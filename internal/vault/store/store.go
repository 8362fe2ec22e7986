// Package store is the vault store: the ordered collection of encrypted
// credential records. It orchestrates one-way migration of legacy plaintext
// records, aggregates decryption failures into a tamper count, and exposes
// the CRUD surface consumed by the UI layer.
//
// Consistency across instances is last-write-wins: several vault instances
// may share the same persisted store with no locking, and a racing save can
// silently drop the other instance's write. Accepted given the low write
// frequency.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/dmitrijs2005/pinvault/internal/events"
	"github.com/dmitrijs2005/pinvault/internal/logging"
	"github.com/dmitrijs2005/pinvault/internal/storage"
	"github.com/dmitrijs2005/pinvault/internal/vault/crypto"
	"github.com/dmitrijs2005/pinvault/internal/vault/models"
)

// MinPasswordLength is the minimum accepted credential password length.
const MinPasswordLength = 6

// LoadResult is the decrypted projection of the vault plus the tamper count
// of the most recent load.
type LoadResult struct {
	// Records holds the successfully decrypted records, persisted order.
	Records []models.PlainCredential

	// TamperedCount is how many records failed decryption and were
	// excluded from Records. A corrupted record is never surfaced,
	// even partially.
	TamperedCount int
}

// Store owns the persisted credential list.
type Store struct {
	kv     storage.KV
	engine *crypto.Engine
	events *events.Recorder
	log    logging.Logger

	// now is a test seam for id generation.
	now func() time.Time
}

func New(kv storage.KV, engine *crypto.Engine, rec *events.Recorder, log logging.Logger) *Store {
	return &Store{
		kv:     kv,
		engine: engine,
		events: rec,
		log:    log.With("component", "store"),
		now:    time.Now,
	}
}

// Load reads all persisted records and returns the decrypted projection.
//
// Records carrying iv/salt are decrypted with the given PIN; failures
// increment TamperedCount and are excluded from the visible list. Legacy
// plaintext records (no iv/salt) are migrated: re-encrypted with the current
// PIN, persisted merged with the untouched encrypted records, and included
// decrypted in the result. Migration is one-directional and idempotent.
func (s *Store) Load(ctx context.Context, pin string) (*LoadResult, error) {
	raw, err := s.readRecords(ctx)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Records: make([]models.PlainCredential, 0, len(raw))}
	persisted := make([]models.CredentialRecord, 0, len(raw))
	migrated := 0

	for _, rec := range raw {
		if rec.IsEncrypted() {
			plain, err := s.engine.DecryptRecord(rec, pin)
			if err != nil {
				if !errors.Is(err, common.ErrDecryption) {
					return nil, err
				}
				result.TamperedCount++
				persisted = append(persisted, rec) // kept on disk, hidden from view
				continue
			}
			result.Records = append(result.Records, *plain)
			persisted = append(persisted, rec)
			continue
		}

		// Legacy plaintext record: encrypt it now, keep the id.
		plain := models.PlainCredential{
			ID:          rec.ID,
			Site:        rec.Site,
			Username:    rec.Username,
			Password:    rec.Password,
			Favicon:     rec.Favicon,
			RiskScore:   rec.RiskScore,
			RiskFactors: rec.RiskFactors,
		}
		enc, err := s.engine.EncryptRecord(plain, pin)
		if err != nil {
			return nil, fmt.Errorf("migrating record %d: %w", rec.ID, err)
		}
		persisted = append(persisted, *enc)
		result.Records = append(result.Records, plain)
		migrated++
	}

	if migrated > 0 {
		if err := s.writeRecords(ctx, persisted); err != nil {
			return nil, err
		}
		s.log.Info(ctx, "migrated legacy plaintext records", "count", migrated)
		s.record(ctx, "legacy_records_migrated", map[string]any{"count": migrated})
	}

	if result.TamperedCount > 0 {
		s.log.Warn(ctx, "records failed decryption", "tampered", result.TamperedCount)
		s.record(ctx, "tamper_detected", map[string]any{"count": result.TamperedCount})
	}

	return result, nil
}

// Save validates, encrypts, and prepends a new credential. It does not
// deduplicate by site: saving the same site twice yields two records.
func (s *Store) Save(ctx context.Context, plain models.PlainCredential, pin string) error {
	if err := validate(plain); err != nil {
		return err
	}

	records, err := s.readRecords(ctx)
	if err != nil {
		return err
	}

	plain.ID = s.nextID(records)
	enc, err := s.engine.EncryptRecord(plain, pin)
	if err != nil {
		return fmt.Errorf("encrypting record: %w", err)
	}

	records = append([]models.CredentialRecord{*enc}, records...)
	if err := s.writeRecords(ctx, records); err != nil {
		return err
	}

	s.log.Info(ctx, "credential saved", "id", enc.ID, "site", plain.Site)
	s.record(ctx, "credential_saved", map[string]any{"id": enc.ID, "site": plain.Site})
	return nil
}

// Delete removes the record with the given id. Returns common.ErrNotFound
// when no record matches. No cascading effects.
func (s *Store) Delete(ctx context.Context, id int64) error {
	records, err := s.readRecords(ctx)
	if err != nil {
		return err
	}

	kept := records[:0]
	found := false
	for _, rec := range records {
		if rec.ID == id {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	if !found {
		return fmt.Errorf("%w: record %d", common.ErrNotFound, id)
	}

	if err := s.writeRecords(ctx, kept); err != nil {
		return err
	}

	s.log.Info(ctx, "credential deleted", "id", id)
	s.record(ctx, "credential_deleted", map[string]any{"id": id})
	return nil
}

// PurgeCorrupted re-attempts decryption of every persisted encrypted record
// and permanently drops the ones that still fail. Returns how many were
// removed. This is the remediation offered after a tamper report.
func (s *Store) PurgeCorrupted(ctx context.Context, pin string) (int, error) {
	records, err := s.readRecords(ctx)
	if err != nil {
		return 0, err
	}

	kept := make([]models.CredentialRecord, 0, len(records))
	removed := 0
	for _, rec := range records {
		if rec.IsEncrypted() {
			if _, err := s.engine.DecryptRecord(rec, pin); err != nil {
				if !errors.Is(err, common.ErrDecryption) {
					return 0, err
				}
				removed++
				continue
			}
		}
		kept = append(kept, rec)
	}

	if removed > 0 {
		if err := s.writeRecords(ctx, kept); err != nil {
			return 0, err
		}
		s.log.Warn(ctx, "purged corrupted records", "count", removed)
		s.record(ctx, "corrupted_records_purged", map[string]any{"count": removed})
	}

	return removed, nil
}

func (s *Store) readRecords(ctx context.Context) ([]models.CredentialRecord, error) {
	raw, err := s.kv.Get(ctx, storage.KeyCredentials)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var records []models.CredentialRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: unreadable credential list: %v", common.ErrStorage, err)
	}
	return records, nil
}

func (s *Store) writeRecords(ctx context.Context, records []models.CredentialRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshalling credential list: %w", err)
	}
	return s.kv.Set(ctx, storage.KeyCredentials, raw)
}

// nextID returns a unique, monotonically increasing id. Millisecond clock
// values are bumped past the current maximum so same-millisecond saves stay
// strictly increasing.
func (s *Store) nextID(records []models.CredentialRecord) int64 {
	id := s.now().UnixMilli()
	for _, rec := range records {
		if rec.ID >= id {
			id = rec.ID + 1
		}
	}
	return id
}

// record appends to the event log; event log failures never fail the
// operation that triggered them.
func (s *Store) record(ctx context.Context, event string, fields map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, event, fields); err != nil {
		s.log.Warn(ctx, "event log append failed", "event", event, "error", err)
	}
}

func validate(plain models.PlainCredential) error {
	if plain.Site == "" || plain.Username == "" || plain.Password == "" {
		return fmt.Errorf("%w: site, username and password are required", common.ErrValidation)
	}
	if len(plain.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, MinPasswordLength)
	}

	hasDigit := false
	hasSpecial := false
	for _, r := range plain.Password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsNumber(r):
			hasSpecial = true
		}
	}
	if !hasDigit || !hasSpecial {
		return fmt.Errorf("%w: password needs a digit and a non-alphanumeric character", common.ErrValidation)
	}
	return nil
}
