// Package retention deletes snapshots older than the configured window.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/venuekit/backupd/internal/catalog"
)

// Sweeper removes catalogued backups past the retention cutoff.
type Sweeper struct {
	Catalog *catalog.Reader
	Log     zerolog.Logger

	Now func() time.Time
}

// Sweep deletes every snapshot created before now - retentionDays. Per-item
// delete failures are logged and skipped so one stuck object cannot block
// routine maintenance; only a failed catalog listing fails the sweep as a
// whole. retentionDays <= 0 disables the sweep.
func (s *Sweeper) Sweep(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	cutoff := now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	records, err := s.Catalog.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("retention sweep: %w", err)
	}

	var swept, failed int
	for _, record := range records {
		if !record.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.Catalog.Store.Delete(ctx, s.Catalog.Key(record.ID)); err != nil {
			failed++
			s.Log.Warn().Err(err).Str("id", record.ID).Msg("failed to delete expired snapshot")
			continue
		}
		swept++
		s.Log.Info().
			Str("id", record.ID).
			Time("created_at", record.CreatedAt).
			Msg("expired snapshot deleted")
	}
	if swept > 0 || failed > 0 {
		s.Log.Info().
			Int("deleted", swept).
			Int("failed", failed).
			Time("cutoff", cutoff).
			Msg("retention sweep finished")
	}
	return nil
}
