// Package coordinator ties the backup subsystem together: snapshot creation,
// catalog listing, restore, retention, health probing, and the periodic
// scheduler, behind one facade the CLI and admin API call into.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/venuekit/backupd/internal/catalog"
	"github.com/venuekit/backupd/internal/config"
	"github.com/venuekit/backupd/internal/health"
	"github.com/venuekit/backupd/internal/notify"
	"github.com/venuekit/backupd/internal/retention"
	"github.com/venuekit/backupd/internal/schedule"
	"github.com/venuekit/backupd/internal/schemaver"
	"github.com/venuekit/backupd/internal/snapshot"
	"github.com/venuekit/backupd/internal/store"
)

// ErrDisabled is returned by every operation when the store configuration
// failed validation at construction. The state is permanent for the process
// lifetime; correcting the configuration requires a restart.
var ErrDisabled = errors.New("backup coordinator is disabled: object store not configured")

// ErrDatabaseMissing aliases the snapshot-level error for callers that
// only import this package.
var ErrDatabaseMissing = snapshot.ErrDatabaseMissing

type Coordinator struct {
	cfg      *config.Config
	store    store.Store
	catalog  *catalog.Reader
	writer   *snapshot.Writer
	reader   *snapshot.Reader
	sweeper  *retention.Sweeper
	prober   *health.Prober
	sched    *schedule.Scheduler
	notifier notify.Notifier
	log      zerolog.Logger

	// Serializes restore and cleanup so a restore cannot race a retention
	// delete of the snapshot it is downloading. Backup uploads stay outside
	// the lock: their keys are timestamp-derived and cannot collide.
	opMu sync.Mutex

	disabledReason error
}

// New validates the store configuration and wires the coordinator. A
// validation or client-construction failure does not error out; it yields a
// permanently disabled coordinator whose operations all short-circuit, which
// is the fail-safe against running with credentials that would only blow up
// mid-request.
func New(cfg *config.Config, logger zerolog.Logger) *Coordinator {
	if err := config.ValidateStore(cfg.Store); err != nil {
		logger.Warn().Err(err).Msg("backups disabled")
		return &Coordinator{cfg: cfg, log: logger, disabledReason: err}
	}
	st, err := store.New(cfg.Store, cfg.Global.StoreTimeout)
	if err != nil {
		logger.Warn().Err(err).Msg("backups disabled: store client construction failed")
		return &Coordinator{cfg: cfg, log: logger, disabledReason: err}
	}
	return NewWithStore(cfg, st, logger)
}

// NewWithStore wires a coordinator around an already built store. Tests and
// embedding applications use this to inject their own backend.
func NewWithStore(cfg *config.Config, st store.Store, logger zerolog.Logger) *Coordinator {
	prefix := cfg.Store.PathPrefix
	cat := catalog.NewReader(st, prefix)
	c := &Coordinator{
		cfg:     cfg,
		store:   st,
		catalog: cat,
		writer: &snapshot.Writer{
			Store:       st,
			Prefix:      prefix,
			DBPath:      cfg.Global.DatabasePath,
			Compression: cfg.Snapshot.Compression,
			Schema:      schemaver.NewDirProvider(cfg.Migration.Dir),
			Log:         logger,
		},
		reader:   &snapshot.Reader{Store: st, Prefix: prefix},
		sweeper:  &retention.Sweeper{Catalog: cat, Log: logger},
		prober:   &health.Prober{Store: st, Prefix: prefix, Log: logger},
		notifier: notify.FromConfig(cfg.Notify),
		log:      logger,
	}
	c.sched = &schedule.Scheduler{
		Interval: time.Duration(cfg.Periodic.IntervalHours) * time.Hour,
		Run:      c.periodicCycle,
		Log:      logger,
	}
	return c
}

// SetSchemaProvider replaces the migrations-directory provider, for host
// applications that track schema state themselves.
func (c *Coordinator) SetSchemaProvider(p schemaver.Provider) {
	if c.writer != nil {
		c.writer.Schema = p
	}
}

// Enabled reports whether the coordinator can reach for the store at all.
func (c *Coordinator) Enabled() bool { return c.disabledReason == nil }

// DisabledReason returns why the coordinator is disabled, or nil.
func (c *Coordinator) DisabledReason() error { return c.disabledReason }

// ListBackups returns up to limit snapshots, newest first.
func (c *Coordinator) ListBackups(ctx context.Context, limit int) ([]catalog.Record, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	return c.catalog.List(ctx, limit)
}

// Cleanup runs one retention sweep with the configured window.
func (c *Coordinator) Cleanup(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.sweeper.Sweep(ctx, c.cfg.Backup.RetentionDays)
}

// TestConnection probes the store. Never errors; false means unreachable
// after retries (or disabled, in which case no network call is made).
func (c *Coordinator) TestConnection(ctx context.Context) bool {
	if !c.Enabled() {
		return false
	}
	return c.prober.Probe(ctx)
}

// StartScheduler begins periodic backups if they are enabled and the
// coordinator is usable. Calling it again without StopScheduler is a no-op.
func (c *Coordinator) StartScheduler() {
	if !c.Enabled() || !c.cfg.Periodic.Enabled {
		return
	}
	c.sched.Start()
}

// StopScheduler cancels future periodic runs. Idempotent; an in-flight
// cycle completes.
func (c *Coordinator) StopScheduler() {
	if c.sched == nil {
		return
	}
	c.sched.Stop()
}

// periodicCycle is the scheduler callback: one periodic backup followed by a
// retention sweep. Errors are logged and swallowed so a failed cycle never
// kills the timer.
func (c *Coordinator) periodicCycle(ctx context.Context) {
	if _, err := c.CreateBackup(ctx, catalog.ProvenancePeriodic); err != nil {
		c.log.Error().Err(err).Msg("periodic backup failed")
	}
	if err := c.Cleanup(ctx); err != nil {
		c.log.Error().Err(err).Msg("periodic cleanup failed")
	}
}
