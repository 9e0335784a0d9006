package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration from an optional YAML file plus environment
// variables. Env always wins; the recognized keys are the flat STORE_* /
// BACKUP_* / PERIODIC_* names rather than a single prefix, so each one is
// bound explicitly.
func Load(path string) (*Config, error) {
	vp := viper.New()

	setDefaults(vp)
	bindEnv(vp)

	if path == "" {
		path = os.Getenv("BACKUPD_CONFIG")
	}
	if path == "" {
		for _, c := range []string{"backupd.yaml", "backupd.yml"} {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}
	if path != "" {
		vp.SetConfigFile(path)
		if err := vp.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := vp.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	expandEnv(&cfg)
	applyPostLoadDefaults(&cfg)
	return &cfg, nil
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault("global.log_level", "info")
	vp.SetDefault("global.log_format", "json")
	vp.SetDefault("global.database_path", "data/app.db")
	vp.SetDefault("global.store_timeout", "60s")
	vp.SetDefault("store.backend", "s3")
	vp.SetDefault("store.region", "auto")
	vp.SetDefault("store.path_prefix", "backups/")
	vp.SetDefault("store.use_ssl", true)
	vp.SetDefault("backup.retention_days", 30)
	vp.SetDefault("periodic.enabled", false)
	vp.SetDefault("periodic.interval_hours", 24)
	vp.SetDefault("snapshot.compression", "none")
	vp.SetDefault("admin.listen_addr", ":8390")
	vp.SetDefault("migration.dir", "migrations")
}

func bindEnv(vp *viper.Viper) {
	pairs := map[string]string{
		"store.endpoint":          "STORE_ENDPOINT",
		"store.region":            "STORE_REGION",
		"store.bucket":            "STORE_BUCKET_NAME",
		"store.access_key_id":     "STORE_ACCESS_KEY_ID",
		"store.secret_access_key": "STORE_SECRET_ACCESS_KEY",
		"store.path_prefix":       "STORE_BACKUP_PATH",
		"store.backend":           "STORE_BACKEND",
		"store.fs_path":           "STORE_FS_PATH",
		"backup.retention_days":   "BACKUP_RETENTION_DAYS",
		"periodic.enabled":        "PERIODIC_BACKUP_ENABLED",
		"periodic.interval_hours": "PERIODIC_BACKUP_INTERVAL_HOURS",
		"snapshot.compression":    "SNAPSHOT_COMPRESSION",
		"global.database_path":    "DATABASE_PATH",
		"global.lock_file":        "LOCK_FILE",
		"global.log_level":        "LOG_LEVEL",
		"global.log_format":       "LOG_FORMAT",
		"admin.listen_addr":       "ADMIN_LISTEN_ADDR",
		"notify.webhook_url":      "NOTIFY_WEBHOOK_URL",
		"migration.dir":           "MIGRATIONS_DIR",
	}
	for key, env := range pairs {
		_ = vp.BindEnv(key, env)
	}
}

func applyPostLoadDefaults(cfg *Config) {
	if cfg.Global.LockFile == "" {
		cfg.Global.LockFile = filepath.Join(os.TempDir(), "backupd.lock")
	}
	if cfg.Global.StoreTimeout == 0 {
		cfg.Global.StoreTimeout = 60 * time.Second
	}
	if cfg.Periodic.IntervalHours <= 0 {
		cfg.Periodic.IntervalHours = 24
	}
	if cfg.Backup.RetentionDays < 0 {
		cfg.Backup.RetentionDays = 0
	}
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)
	cfg.Snapshot.Compression = strings.ToLower(cfg.Snapshot.Compression)
	cfg.Store.PathPrefix = normalizePrefix(cfg.Store.PathPrefix)
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimPrefix(strings.TrimSpace(prefix), "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

func expandEnv(cfg *Config) {
	cfg.Store.AccessKeyID = os.ExpandEnv(cfg.Store.AccessKeyID)
	cfg.Store.SecretAccessKey = os.ExpandEnv(cfg.Store.SecretAccessKey)
	cfg.Notify.WebhookURL = os.ExpandEnv(cfg.Notify.WebhookURL)
}
