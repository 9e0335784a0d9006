package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/venuekit/backupd/internal/catalog"
	"github.com/venuekit/backupd/internal/compress"
	"github.com/venuekit/backupd/internal/store"
)

// Reader downloads a named snapshot over a local path.
type Reader struct {
	Store  store.Store
	Prefix string
}

// Download streams the snapshot with the given id to destPath. The payload
// lands in a temporary file in the destination directory and is renamed into
// place only after a successful sync, so a failed download never leaves
// destPath partially overwritten.
func (r *Reader) Download(ctx context.Context, id, destPath string) error {
	body, err := r.Store.Get(ctx, r.Prefix+id)
	if err != nil {
		return fmt.Errorf("download snapshot: %w", err)
	}
	defer body.Close()

	payload, err := compress.WrapReader(compress.ForExt(catalog.CompressionExt(id)), body)
	if err != nil {
		return fmt.Errorf("open snapshot payload: %w", err)
	}
	defer payload.Close()

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(destPath)+".restore-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// No-ops once the rename has happened.
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, payload); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	return nil
}
