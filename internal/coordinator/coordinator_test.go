package coordinator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/venuekit/backupd/internal/catalog"
	"github.com/venuekit/backupd/internal/config"
	"github.com/venuekit/backupd/internal/store"
)

type harness struct {
	cfg    *config.Config
	fs     *store.FS
	coord  *Coordinator
	dbPath string
	base   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	base := t.TempDir()
	dbDir := t.TempDir()
	cfg := &config.Config{
		Global: config.GlobalConfig{
			DatabasePath: filepath.Join(dbDir, "app.db"),
			LockFile:     filepath.Join(t.TempDir(), "backupd.lock"),
			StoreTimeout: time.Minute,
		},
		Store:     config.StoreConfig{Backend: "fs", FSPath: base, PathPrefix: "backups/"},
		Backup:    config.BackupConfig{RetentionDays: 30},
		Periodic:  config.PeriodicConfig{Enabled: false, IntervalHours: 24},
		Snapshot:  config.SnapshotConfig{Compression: "none"},
		Migration: config.MigrationConfig{Dir: t.TempDir()},
	}
	fs := store.NewFS(base)
	return &harness{
		cfg:    cfg,
		fs:     fs,
		coord:  NewWithStore(cfg, fs, zerolog.Nop()),
		dbPath: cfg.Global.DatabasePath,
		base:   base,
	}
}

func (h *harness) writeLocal(t *testing.T, content string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(h.dbPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write local db: %v", err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(h.dbPath, mtime, mtime); err != nil {
			t.Fatalf("chtimes local db: %v", err)
		}
	}
}

func (h *harness) putRemote(t *testing.T, id, content string, createdAt time.Time) {
	t.Helper()
	key := "backups/" + id
	if err := h.fs.Put(context.Background(), key, strings.NewReader(content), -1, nil); err != nil {
		t.Fatalf("put remote: %v", err)
	}
	path := filepath.Join(h.base, filepath.FromSlash(key))
	if err := os.Chtimes(path, createdAt, createdAt); err != nil {
		t.Fatalf("chtimes remote: %v", err)
	}
}

func TestCreateAndListBackups(t *testing.T) {
	h := newHarness(t)
	h.writeLocal(t, "db-content", time.Time{})

	record, err := h.coord.CreateBackup(context.Background(), catalog.ProvenanceManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Provenance != catalog.ProvenanceManual {
		t.Fatalf("unexpected provenance: %s", record.Provenance)
	}

	records, err := h.coord.ListBackups(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].ID != record.ID {
		t.Fatalf("expected the created backup in the catalog, got %+v", records)
	}
}

func TestCreateBackupMissingDatabase(t *testing.T) {
	h := newHarness(t)
	_, err := h.coord.CreateBackup(context.Background(), catalog.ProvenanceManual)
	if !errors.Is(err, ErrDatabaseMissing) {
		t.Fatalf("expected ErrDatabaseMissing, got %v", err)
	}
}

func TestRestoreNothingToRestore(t *testing.T) {
	// Scenario A: empty catalog, local file present.
	h := newHarness(t)
	h.writeLocal(t, "local", time.Time{})

	record, err := h.coord.RestoreLatest(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nothing to restore, got %+v", record)
	}
	content, _ := os.ReadFile(h.dbPath)
	if string(content) != "local" {
		t.Fatalf("local file must be untouched, got %q", content)
	}
}

func TestRestoreWhenRemoteNewer(t *testing.T) {
	// Scenario B / P2: snapshot newer than local file.
	h := newHarness(t)
	h.writeLocal(t, "stale-local", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	h.putRemote(t, "app-periodic-2024-01-02T000000Z.db", "fresh-remote", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	record, err := h.coord.RestoreLatest(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatalf("expected a restore")
	}
	if record.Status != catalog.StatusLatestRestored {
		t.Fatalf("expected latest_restored status, got %q", record.Status)
	}
	content, _ := os.ReadFile(h.dbPath)
	if string(content) != "fresh-remote" {
		t.Fatalf("expected remote payload, got %q", content)
	}
}

func TestRestoreSkipsWhenLocalNewer(t *testing.T) {
	// P2: a strictly newer local file is never clobbered.
	h := newHarness(t)
	h.writeLocal(t, "newer-local", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	h.putRemote(t, "app-periodic-2024-01-02T000000Z.db", "old-remote", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	record, err := h.coord.RestoreLatest(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Fatalf("expected skip, got %+v", record)
	}
	content, _ := os.ReadFile(h.dbPath)
	if string(content) != "newer-local" {
		t.Fatalf("local file was clobbered: %q", content)
	}
}

func TestRestoreWhenTimestampsEqual(t *testing.T) {
	// P2 boundary: the comparison is inclusive, so a snapshot created at
	// exactly the local file's mtime still restores.
	h := newHarness(t)
	at := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	h.writeLocal(t, "local", at)
	h.putRemote(t, "app-periodic-2024-01-02T000000Z.db", "remote", at)

	record, err := h.coord.RestoreLatest(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatalf("equal timestamps must restore, not skip")
	}
	content, _ := os.ReadFile(h.dbPath)
	if string(content) != "remote" {
		t.Fatalf("expected remote payload, got %q", content)
	}
}

func TestRestoreSurfacesLocalStatFailure(t *testing.T) {
	// A stat failure that is not plain absence must abort the restore
	// rather than overwrite a file that may exist.
	h := newHarness(t)
	h.putRemote(t, "app-manual-2024-01-02T000000Z.db", "remote", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	// Stat on a path under a regular file fails with ENOTDIR.
	h.cfg.Global.DatabasePath = filepath.Join(blocker, "app.db")

	record, err := h.coord.RestoreLatest(context.Background(), false)
	if err == nil {
		t.Fatalf("expected stat failure to surface, got record %+v", record)
	}
	if !strings.Contains(err.Error(), "stat local database") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRestoreForced(t *testing.T) {
	// P3: force restores regardless of timestamps.
	h := newHarness(t)
	h.writeLocal(t, "newer-local", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	h.putRemote(t, "app-manual-2024-01-02T000000Z.db", "old-remote", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	record, err := h.coord.RestoreLatest(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatalf("forced restore must proceed")
	}
	content, _ := os.ReadFile(h.dbPath)
	if string(content) != "old-remote" {
		t.Fatalf("expected remote payload, got %q", content)
	}
}

func TestRestoreWhenNoLocalFile(t *testing.T) {
	// P4: fresh instance, no local database.
	h := newHarness(t)
	h.putRemote(t, "app-shutdown-2024-01-02T000000Z.db", "remote", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	record, err := h.coord.RestoreLatest(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatalf("expected restore with no local file")
	}
	content, err := os.ReadFile(h.dbPath)
	if err != nil {
		t.Fatalf("restored file missing: %v", err)
	}
	if string(content) != "remote" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestRestorePicksNewestCandidate(t *testing.T) {
	h := newHarness(t)
	h.putRemote(t, "app-manual-2024-01-01T000000Z.db", "older", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	h.putRemote(t, "app-manual-2024-01-05T000000Z.db", "newest", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	h.putRemote(t, "app-manual-2024-01-03T000000Z.db", "middle", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))

	record, err := h.coord.RestoreLatest(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil || !strings.Contains(record.ID, "2024-01-05") {
		t.Fatalf("expected the newest snapshot, got %+v", record)
	}
}

func TestCleanupHonorsRetention(t *testing.T) {
	// Scenario C at the facade level.
	h := newHarness(t)
	h.cfg.Backup.RetentionDays = 30
	h.coord.sweeper.Now = func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }
	h.putRemote(t, "app-periodic-2023-12-01T000000Z.db", "old", time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC))
	h.putRemote(t, "app-periodic-2024-01-25T000000Z.db", "new", time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC))

	if err := h.coord.Cleanup(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := h.coord.ListBackups(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || !strings.Contains(records[0].ID, "2024-01-25") {
		t.Fatalf("expected only the in-window snapshot to survive, got %+v", records)
	}
}

func disabledCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	cfg := &config.Config{
		Global:   config.GlobalConfig{DatabasePath: filepath.Join(t.TempDir(), "app.db")},
		Store:    config.StoreConfig{Backend: "s3"}, // everything required is missing
		Periodic: config.PeriodicConfig{Enabled: true, IntervalHours: 24},
	}
	coord := New(cfg, zerolog.Nop())
	if coord.Enabled() {
		t.Fatalf("coordinator should be disabled")
	}
	return coord
}

func TestDisabledShortCircuit(t *testing.T) {
	// P6: with required configuration missing, every operation returns the
	// disabled error or an empty result without touching the network.
	coord := disabledCoordinator(t)
	ctx := context.Background()

	if _, err := coord.CreateBackup(ctx, catalog.ProvenanceManual); !errors.Is(err, ErrDisabled) {
		t.Fatalf("CreateBackup: expected ErrDisabled, got %v", err)
	}
	if _, err := coord.RestoreLatest(ctx, false); !errors.Is(err, ErrDisabled) {
		t.Fatalf("RestoreLatest: expected ErrDisabled, got %v", err)
	}
	if _, err := coord.ListBackups(ctx, 5); !errors.Is(err, ErrDisabled) {
		t.Fatalf("ListBackups: expected ErrDisabled, got %v", err)
	}
	if err := coord.Cleanup(ctx); !errors.Is(err, ErrDisabled) {
		t.Fatalf("Cleanup: expected ErrDisabled, got %v", err)
	}
	if coord.TestConnection(ctx) {
		t.Fatalf("TestConnection: expected false when disabled")
	}

	status := coord.GetStatus(ctx)
	if status.Enabled {
		t.Fatalf("status should report disabled")
	}
	if status.DisabledReason == "" {
		t.Fatalf("status should carry the disabled reason")
	}
	if status.ConnectionHealthy || status.BackupCount != 0 {
		t.Fatalf("disabled status should be empty, got %+v", status)
	}
}

func TestDisabledSchedulerNoop(t *testing.T) {
	coord := disabledCoordinator(t)
	coord.StartScheduler() // must not panic or register a timer
	coord.StopScheduler()
}

func TestGetStatusAggregates(t *testing.T) {
	h := newHarness(t)
	h.putRemote(t, "app-manual-2024-01-01T000000Z.db", "a", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	h.putRemote(t, "app-manual-2024-01-02T000000Z.db", "b", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	status := h.coord.GetStatus(context.Background())
	if !status.Enabled || !status.ConnectionHealthy {
		t.Fatalf("expected healthy enabled status, got %+v", status)
	}
	if status.BackupCount != 2 {
		t.Fatalf("expected 2 backups, got %d", status.BackupCount)
	}
	if status.LastBackupAt == nil || !status.LastBackupAt.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected last backup time: %v", status.LastBackupAt)
	}
	if status.PeriodicIntervalHours != 24 {
		t.Fatalf("unexpected interval: %d", status.PeriodicIntervalHours)
	}
}

func TestTestConnectionHealthy(t *testing.T) {
	h := newHarness(t)
	if !h.coord.TestConnection(context.Background()) {
		t.Fatalf("fs-backed store should be reachable")
	}
}
