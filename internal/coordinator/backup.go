package coordinator

import (
	"context"
	"time"

	"github.com/venuekit/backupd/internal/catalog"
	"github.com/venuekit/backupd/internal/lock"
	"github.com/venuekit/backupd/internal/notify"
)

// CreateBackup uploads one snapshot of the database file with the given
// provenance. Shutdown backups additionally take the cross-process file lock
// so they cannot overlap a restore racing the exiting process.
func (c *Coordinator) CreateBackup(ctx context.Context, provenance catalog.Provenance) (*catalog.Record, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	if provenance == catalog.ProvenanceShutdown {
		guard, err := lock.Acquire(c.cfg.Global.LockFile)
		if err != nil {
			return nil, err
		}
		defer guard.Release()
	}

	start := time.Now()
	record, err := c.writer.Create(ctx, provenance)
	c.notifyOutcome(ctx, notify.Event{
		Operation:  "backup",
		Status:     statusFromErr(err),
		Provenance: string(provenance),
		BackupID:   recordID(record),
		SizeBytes:  recordSize(record),
		StartedAt:  start,
		EndedAt:    time.Now(),
		Error:      errString(err),
	})
	return record, err
}

// BackupOnShutdown is the process shutdown hook: a synchronous shutdown
// backup whose failure is logged, never propagated, so it cannot block exit.
func (c *Coordinator) BackupOnShutdown(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if _, err := c.CreateBackup(ctx, catalog.ProvenanceShutdown); err != nil {
		c.log.Error().Err(err).Msg("shutdown backup failed")
	}
}

func (c *Coordinator) notifyOutcome(ctx context.Context, event notify.Event) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, event); err != nil {
		c.log.Warn().Err(err).Str("operation", event.Operation).Msg("outcome notification failed")
	}
}

func statusFromErr(err error) string {
	if err == nil {
		return "success"
	}
	return "failed"
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func recordID(record *catalog.Record) string {
	if record == nil {
		return ""
	}
	return record.ID
}

func recordSize(record *catalog.Record) int64 {
	if record == nil {
		return 0
	}
	return record.SizeBytes
}
