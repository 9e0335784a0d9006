package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Region != "auto" {
		t.Fatalf("expected default region auto, got %q", cfg.Store.Region)
	}
	if cfg.Store.PathPrefix != "backups/" {
		t.Fatalf("expected default prefix backups/, got %q", cfg.Store.PathPrefix)
	}
	if cfg.Backup.RetentionDays != 30 {
		t.Fatalf("expected default retention 30, got %d", cfg.Backup.RetentionDays)
	}
	if cfg.Periodic.Enabled {
		t.Fatalf("periodic backups should default to disabled")
	}
	if cfg.Periodic.IntervalHours != 24 {
		t.Fatalf("expected default interval 24h, got %d", cfg.Periodic.IntervalHours)
	}
	if cfg.Global.StoreTimeout != 60*time.Second {
		t.Fatalf("expected 60s store timeout, got %v", cfg.Global.StoreTimeout)
	}
	if cfg.Global.LockFile == "" {
		t.Fatalf("expected a default lock file path")
	}
}

func TestLoadEnvBindings(t *testing.T) {
	t.Setenv("STORE_ENDPOINT", "minio.internal:9000")
	t.Setenv("STORE_BUCKET_NAME", "snapshots")
	t.Setenv("STORE_ACCESS_KEY_ID", "AKIA0123456789ABCDEF")
	t.Setenv("STORE_SECRET_ACCESS_KEY", "wJalrXUtnFEMIK7MDENGbPxRfiCYEXAMPLEKEY")
	t.Setenv("STORE_BACKUP_PATH", "db-backups")
	t.Setenv("BACKUP_RETENTION_DAYS", "7")
	t.Setenv("PERIODIC_BACKUP_ENABLED", "true")
	t.Setenv("PERIODIC_BACKUP_INTERVAL_HOURS", "6")
	t.Setenv("DATABASE_PATH", "/srv/app/data/app.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Endpoint != "minio.internal:9000" {
		t.Fatalf("endpoint not bound: %q", cfg.Store.Endpoint)
	}
	if cfg.Store.Bucket != "snapshots" {
		t.Fatalf("bucket not bound: %q", cfg.Store.Bucket)
	}
	if cfg.Store.PathPrefix != "db-backups/" {
		t.Fatalf("prefix should be normalized with trailing slash, got %q", cfg.Store.PathPrefix)
	}
	if cfg.Backup.RetentionDays != 7 {
		t.Fatalf("retention not bound: %d", cfg.Backup.RetentionDays)
	}
	if !cfg.Periodic.Enabled || cfg.Periodic.IntervalHours != 6 {
		t.Fatalf("periodic settings not bound: %+v", cfg.Periodic)
	}
	if cfg.Global.DatabasePath != "/srv/app/data/app.db" {
		t.Fatalf("database path not bound: %q", cfg.Global.DatabasePath)
	}
	if err := ValidateStore(cfg.Store); err != nil {
		t.Fatalf("bound config should validate: %v", err)
	}
}

func TestNormalizePrefix(t *testing.T) {
	cases := map[string]string{
		"backups":   "backups/",
		"backups/":  "backups/",
		"/backups":  "backups/",
		"":          "",
		"  deep/a ": "deep/a/",
	}
	for in, want := range cases {
		if got := normalizePrefix(in); got != want {
			t.Fatalf("normalizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
