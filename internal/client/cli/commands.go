package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/dmitrijs2005/pinvault/internal/vault/models"
)

// riskLookupTimeout bounds the advisory scoring call; a slow or down
// classifier must never block a save.
const riskLookupTimeout = 3 * time.Second

// Setup enrolls the vault PIN on first run.
func (a *App) Setup(ctx context.Context) error {
	enrolled, err := a.pins.IsEnrolled(ctx)
	if err != nil {
		return err
	}
	if enrolled {
		printlnFn("A PIN is already enrolled.")
		return nil
	}

	pin1, err := GetPin("Choose a PIN (4-6 digits): ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin1)
	pin2, err := GetPin("Repeat PIN: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin2)

	if string(pin1) != string(pin2) {
		printlnFn("PINs do not match.")
		return nil
	}

	if err := a.pins.Enroll(ctx, string(pin1)); err != nil {
		if errors.Is(err, common.ErrInvalidPinFormat) {
			printlnFn("PIN must be 4 to 6 digits.")
			return nil
		}
		return err
	}

	printlnFn("PIN enrolled. Use 'unlock' to open the vault.")
	return nil
}

// Unlock verifies the PIN and opens a session. Wrong PINs may be retried up
// to maxUnlockAttempts times within this one command.
func (a *App) Unlock(ctx context.Context) error {
	enrolled, err := a.pins.IsEnrolled(ctx)
	if err != nil {
		return err
	}
	if !enrolled {
		printlnFn("No PIN enrolled yet. Run 'setup' first.")
		return nil
	}
	if a.isUnlocked(ctx) {
		printlnFn("Vault is already unlocked.")
		return nil
	}

	for attempt := 1; attempt <= maxUnlockAttempts; attempt++ {
		pinBytes, err := GetPin("Enter PIN: ", os.Stdout)
		if err != nil {
			return err
		}

		err = a.pins.Authenticate(ctx, string(pinBytes))
		if err == nil {
			err = a.sessions.Unlock(ctx, string(pinBytes))
			common.WipeByteArray(pinBytes)
			if err != nil {
				return err
			}
			a.startAutoExtend(ctx)
			a.reportVaultState(ctx)
			return nil
		}
		common.WipeByteArray(pinBytes)

		if !errors.Is(err, common.ErrAuthenticationFailed) {
			return err
		}
		printlnFn(fmt.Sprintf("Wrong PIN (%d/%d).", attempt, maxUnlockAttempts))
	}

	printlnFn("Too many failed attempts.")
	return nil
}

// reportVaultState loads the vault once after unlock to surface counts and
// trigger the legacy-record migration early.
func (a *App) reportVaultState(ctx context.Context) {
	pin, err := a.sessions.CurrentPin(ctx)
	if err != nil {
		return
	}
	res, err := a.store.Load(ctx, pin)
	if err != nil {
		a.log.Error(ctx, "error loading vault", "error", err)
		return
	}
	printlnFn(fmt.Sprintf("Vault unlocked: %d record(s).", len(res.Records)))
	if res.TamperedCount > 0 {
		printlnFn(fmt.Sprintf("WARNING: %d record(s) failed decryption and are hidden. Use 'purge' to remove them.", res.TamperedCount))
	}
}

// Lock closes the session.
func (a *App) Lock(ctx context.Context) error {
	a.stopAutoExtend()
	if err := a.sessions.Lock(ctx); err != nil {
		return err
	}
	printlnFn("Vault locked.")
	return nil
}

// currentPin resolves the session PIN or tells the user to unlock.
func (a *App) currentPin(ctx context.Context) (string, bool) {
	pin, err := a.sessions.CurrentPin(ctx)
	if err != nil {
		if errors.Is(err, common.ErrSessionExpired) {
			a.stopAutoExtend()
			printlnFn("Vault is locked. Use 'unlock' first.")
		} else {
			a.log.Error(ctx, "error reading session", "error", err)
		}
		return "", false
	}
	return pin, true
}

// Add saves a new credential. The risk lookup is advisory: a failure is
// logged and the save proceeds without a score.
func (a *App) Add(ctx context.Context) error {
	pin, ok := a.currentPin(ctx)
	if !ok {
		return nil
	}

	site, err := GetSimpleText(a.reader, "Site URL", os.Stdout)
	if err != nil {
		return err
	}
	username, err := GetSimpleText(a.reader, "Username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetSecret("Password: ", os.Stdout)
	if err != nil {
		return err
	}

	cred := models.PlainCredential{Site: site, Username: username, Password: password}

	if a.scorer != nil {
		scoreCtx, cancel := context.WithTimeout(ctx, riskLookupTimeout)
		assessment, err := a.scorer.Score(scoreCtx, site)
		cancel()
		if err != nil {
			a.log.Warn(ctx, "risk lookup failed", "site", site, "error", err)
		} else {
			cred.RiskScore = assessment.Probability
			cred.RiskFactors = assessment.Factors
			if assessment.Label != "" {
				printlnFn(fmt.Sprintf("Risk verdict: %s", assessment.Label))
			}
		}
	}

	if err := a.store.Save(ctx, cred, pin); err != nil {
		if errors.Is(err, common.ErrValidation) {
			printlnFn(fmt.Sprintf("Not saved: %v", err))
			return nil
		}
		return err
	}

	printlnFn("Saved.")
	return nil
}

// List shows all decryptable records.
func (a *App) List(ctx context.Context) error {
	pin, ok := a.currentPin(ctx)
	if !ok {
		return nil
	}

	res, err := a.store.Load(ctx, pin)
	if err != nil {
		return err
	}

	if len(res.Records) == 0 {
		printlnFn("Vault is empty.")
	}
	for _, r := range res.Records {
		line := fmt.Sprintf("%d  %s  %s", r.ID, r.Site, r.Username)
		if r.RiskScore != nil {
			line += fmt.Sprintf("  (risk %.2f)", *r.RiskScore)
		}
		printlnFn(line)
	}
	if res.TamperedCount > 0 {
		printlnFn(fmt.Sprintf("%d record(s) hidden due to decryption failure.", res.TamperedCount))
	}
	return nil
}

// Show prints one record, password included.
func (a *App) Show(ctx context.Context) error {
	pin, ok := a.currentPin(ctx)
	if !ok {
		return nil
	}

	id, err := a.promptID()
	if err != nil {
		return err
	}

	res, err := a.store.Load(ctx, pin)
	if err != nil {
		return err
	}
	for _, r := range res.Records {
		if r.ID == id {
			printlnFn(fmt.Sprintf("Site:     %s", r.Site))
			printlnFn(fmt.Sprintf("Username: %s", r.Username))
			printlnFn(fmt.Sprintf("Password: %s", r.Password))
			if r.RiskScore != nil {
				printlnFn(fmt.Sprintf("Risk:     %.2f", *r.RiskScore))
			}
			for name, weight := range r.RiskFactors {
				printlnFn(fmt.Sprintf("  %s: %.3f", name, weight))
			}
			return nil
		}
	}
	printlnFn("No such record.")
	return nil
}

// Rm deletes one record by id.
func (a *App) Rm(ctx context.Context) error {
	if _, ok := a.currentPin(ctx); !ok {
		return nil
	}

	id, err := a.promptID()
	if err != nil {
		return err
	}

	if err := a.store.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			printlnFn("No such record.")
			return nil
		}
		return err
	}
	printlnFn("Deleted.")
	return nil
}

// Purge drops records that still fail decryption with the session PIN.
func (a *App) Purge(ctx context.Context) error {
	pin, ok := a.currentPin(ctx)
	if !ok {
		return nil
	}

	removed, err := a.store.PurgeCorrupted(ctx, pin)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Removed %d corrupted record(s).", removed))
	return nil
}

// Events prints the most recent vault activity.
func (a *App) Events(ctx context.Context) error {
	entries, err := a.events.List(ctx)
	if err != nil {
		return err
	}

	const tail = 20
	if len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}
	if len(entries) == 0 {
		printlnFn("No events recorded.")
	}
	for _, e := range entries {
		printlnFn(fmt.Sprintf("%s  %s  %v", e.Timestamp.Format(time.RFC3339), e.Event, e.Context))
	}
	return nil
}

func (a *App) promptID() (int64, error) {
	text, err := GetSimpleText(a.reader, "Record id", os.Stdout)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", text, err)
	}
	return id, nil
}
