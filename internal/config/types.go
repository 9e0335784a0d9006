package config

import "time"

// Config is the root configuration schema.
type Config struct {
	Global    GlobalConfig    `mapstructure:"global"`
	Store     StoreConfig     `mapstructure:"store"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Periodic  PeriodicConfig  `mapstructure:"periodic"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Migration MigrationConfig `mapstructure:"migration"`
}

type GlobalConfig struct {
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"` // json or console
	LockFile     string        `mapstructure:"lock_file"`
	DatabasePath string        `mapstructure:"database_path"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"`
}

// StoreConfig holds the object-store connection settings. All four required
// fields must pass Validate before a client is ever constructed; a config
// that fails validation leaves the coordinator permanently disabled for the
// life of the process.
type StoreConfig struct {
	Backend         string `mapstructure:"backend"` // s3 or fs
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PathPrefix      string `mapstructure:"path_prefix"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	FSPath          string `mapstructure:"fs_path"` // backend=fs only
}

type BackupConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

type PeriodicConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	IntervalHours int  `mapstructure:"interval_hours"`
}

type SnapshotConfig struct {
	Compression string `mapstructure:"compression"` // none, gzip, zstd
}

type AdminConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

type NotifyConfig struct {
	WebhookURL string            `mapstructure:"webhook_url"`
	Headers    map[string]string `mapstructure:"headers"`
}

type MigrationConfig struct {
	Dir string `mapstructure:"dir"`
}
