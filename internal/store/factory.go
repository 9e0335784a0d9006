package store

import (
	"fmt"
	"time"

	"github.com/venuekit/backupd/internal/config"
)

// New builds the configured backend. Callers are expected to have run
// config.ValidateStore first; this only dispatches.
func New(cfg config.StoreConfig, timeout time.Duration) (Store, error) {
	switch cfg.Backend {
	case "s3", "":
		return NewS3(cfg, timeout)
	case "fs":
		return NewFS(cfg.FSPath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}
