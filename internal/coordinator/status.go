package coordinator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/venuekit/backupd/internal/catalog"
)

// Status is the aggregate operator view of the subsystem.
type Status struct {
	Enabled               bool             `json:"enabled"`
	DisabledReason        string           `json:"disabled_reason,omitempty"`
	ConnectionHealthy     bool             `json:"connection_healthy"`
	BackupCount           int              `json:"backup_count"`
	LastBackupAt          *time.Time       `json:"last_backup_at,omitempty"`
	RecentBackups         []catalog.Record `json:"recent_backups,omitempty"`
	PeriodicEnabled       bool             `json:"periodic_enabled"`
	PeriodicIntervalHours int              `json:"periodic_interval_hours"`
	RetentionDays         int              `json:"retention_days"`
}

// GetStatus aggregates a connection probe with a short catalog listing.
// It never returns an error: on internal failure the result degrades to
// whatever could be determined.
func (c *Coordinator) GetStatus(ctx context.Context) Status {
	status := Status{
		Enabled:               c.Enabled(),
		PeriodicEnabled:       c.cfg.Periodic.Enabled,
		PeriodicIntervalHours: c.cfg.Periodic.IntervalHours,
		RetentionDays:         c.cfg.Backup.RetentionDays,
	}
	if !status.Enabled {
		if c.disabledReason != nil {
			status.DisabledReason = c.disabledReason.Error()
		}
		return status
	}

	// Probe and listing are both read-only; run them together.
	var records []catalog.Record
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		status.ConnectionHealthy = c.prober.Probe(egCtx)
		return nil
	})
	eg.Go(func() error {
		var err error
		records, err = c.catalog.List(egCtx, 5)
		if err != nil {
			c.log.Warn().Err(err).Msg("status listing failed")
		}
		return nil
	})
	_ = eg.Wait()

	status.BackupCount = len(records)
	status.RecentBackups = records
	if len(records) > 0 {
		latest := records[0].CreatedAt
		status.LastBackupAt = &latest
	}
	return status
}
