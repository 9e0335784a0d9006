package coordinator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/venuekit/backupd/internal/catalog"
	"github.com/venuekit/backupd/internal/lock"
	"github.com/venuekit/backupd/internal/notify"
)

// restoreDecision names the three mutually exclusive reasons a restore
// proceeds, plus the skip outcome.
type restoreDecision string

const (
	decisionNoLocal restoreDecision = "no-local"
	decisionForced  restoreDecision = "forced"
	decisionNewer   restoreDecision = "remote-newer"
	decisionSkip    restoreDecision = "skip"
)

// candidateWindow is how many recent snapshots the decision engine fetches.
const candidateWindow = 10

// RestoreLatest downloads the newest snapshot over the local database file
// when the decision engine says so. A nil record with nil error means
// nothing needed restoring: either the catalog is empty or the local file is
// strictly newer than every snapshot. force bypasses the timestamp
// comparison entirely.
//
// The download goes through a temp file and an atomic rename, so a failure
// partway never leaves the database half-overwritten.
func (c *Coordinator) RestoreLatest(ctx context.Context, force bool) (*catalog.Record, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	c.opMu.Lock()
	defer c.opMu.Unlock()

	guard, err := lock.Acquire(c.cfg.Global.LockFile)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	records, err := c.catalog.List(ctx, candidateWindow)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		c.log.Info().Msg("no snapshots in store, nothing to restore")
		return nil, nil
	}
	candidate := records[0]

	decision, err := c.decide(candidate, force)
	if err != nil {
		return nil, err
	}
	if decision == decisionSkip {
		c.log.Info().
			Str("id", candidate.ID).
			Time("snapshot_created_at", candidate.CreatedAt).
			Msg("local database is newer than latest snapshot, skipping restore")
		return nil, nil
	}

	start := time.Now()
	err = c.reader.Download(ctx, candidate.ID, c.cfg.Global.DatabasePath)
	c.notifyOutcome(ctx, notify.Event{
		Operation:  "restore",
		Status:     statusFromErr(err),
		Provenance: string(candidate.Provenance),
		BackupID:   candidate.ID,
		SizeBytes:  candidate.SizeBytes,
		StartedAt:  start,
		EndedAt:    time.Now(),
		Error:      errString(err),
	})
	if err != nil {
		return nil, err
	}

	candidate.Status = catalog.StatusLatestRestored
	c.log.Info().
		Str("id", candidate.ID).
		Str("decision", string(decision)).
		Str("schema_version", candidate.SchemaVersion).
		Msg("database restored from snapshot")
	return &candidate, nil
}

// decide picks the restore path. The three proceed states are exhaustive:
// no local file, forced, or the snapshot is at least as new as the local
// file. Only a strictly newer local file skips, since post-restore local
// writes must never be silently clobbered. A stat failure other than
// absence is an error: a file that might exist must not be overwritten on
// a guess.
func (c *Coordinator) decide(candidate catalog.Record, force bool) (restoreDecision, error) {
	info, err := os.Stat(c.cfg.Global.DatabasePath)
	if os.IsNotExist(err) {
		return decisionNoLocal, nil
	}
	if err != nil {
		return "", fmt.Errorf("stat local database: %w", err)
	}
	if force {
		return decisionForced, nil
	}
	if info.ModTime().After(candidate.CreatedAt) {
		return decisionSkip, nil
	}
	return decisionNewer, nil
}
