// Package store abstracts the remote object store that holds database
// snapshots. The production backend is any S3-compatible API (Cloudflare R2,
// MinIO, AWS S3); a filesystem backend exists for tests and local
// development.
package store

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key      string
	Size     int64
	Modified time.Time
	ETag     string
	Metadata map[string]string
}

// Store is the minimal object-store surface the coordinator needs.
type Store interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, metadata map[string]string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}
