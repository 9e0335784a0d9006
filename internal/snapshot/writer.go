// Package snapshot moves point-in-time copies of the database file between
// the local filesystem and the object store.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/venuekit/backupd/internal/catalog"
	"github.com/venuekit/backupd/internal/compress"
	"github.com/venuekit/backupd/internal/schemaver"
	"github.com/venuekit/backupd/internal/store"
)

// ErrDatabaseMissing means there is nothing to back up. Fatal for the
// operation, never retried.
var ErrDatabaseMissing = errors.New("database file not found")

// Writer streams the local database file into the store under a
// deterministically named key.
type Writer struct {
	Store       store.Store
	Prefix      string
	DBPath      string
	Compression string
	Schema      schemaver.Provider
	Log         zerolog.Logger

	// Now is swappable for tests; zero value means time.Now.
	Now func() time.Time
}

// Create uploads one snapshot and returns its catalog record. Ids are
// second-truncated, so two calls within the same wall-clock second for the
// same provenance produce the same key and the second upload replaces the
// first (plain S3 put semantics).
func (w *Writer) Create(ctx context.Context, provenance catalog.Provenance) (*catalog.Record, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}

	info, err := os.Stat(w.DBPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseMissing, w.DBPath)
		}
		return nil, fmt.Errorf("stat database: %w", err)
	}

	ext, err := compress.Ext(w.Compression)
	if err != nil {
		return nil, err
	}
	createdAt := now().UTC().Truncate(time.Second)
	id := catalog.BuildID(provenance, createdAt, ext)
	key := w.Prefix + id

	version := w.schemaVersion(ctx)
	metadata := map[string]string{
		catalog.MetaProvenance:    string(provenance),
		catalog.MetaCreatedAt:     createdAt.Format(time.RFC3339),
		catalog.MetaSchemaVersion: version,
	}

	file, err := os.Open(w.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer file.Close()

	if ext == "" {
		if err := w.Store.Put(ctx, key, file, info.Size(), metadata); err != nil {
			return nil, fmt.Errorf("upload snapshot: %w", err)
		}
	} else if err := w.putCompressed(ctx, key, file, metadata); err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}

	record := &catalog.Record{
		ID:            id,
		Provenance:    provenance,
		CreatedAt:     createdAt,
		SizeBytes:     info.Size(),
		SchemaVersion: version,
	}
	if stat, err := w.Store.Stat(ctx, key); err == nil {
		record.CreatedAt = stat.Modified
		record.SizeBytes = stat.Size
	}

	w.Log.Info().
		Str("id", id).
		Str("provenance", string(provenance)).
		Int64("size", record.SizeBytes).
		Str("schema_version", version).
		Msg("snapshot uploaded")
	return record, nil
}

// putCompressed feeds the file through the codec into the store with an
// io.Pipe, so the payload is never buffered whole in memory.
func (w *Writer) putCompressed(ctx context.Context, key string, file io.Reader, metadata map[string]string) error {
	pipeReader, pipeWriter := io.Pipe()
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer pipeReader.Close()
		return w.Store.Put(egCtx, key, pipeReader, -1, metadata)
	})

	eg.Go(func() error {
		compWriter, err := compress.WrapWriter(w.Compression, pipeWriter)
		if err != nil {
			_ = pipeWriter.CloseWithError(err)
			return err
		}
		if _, err := io.Copy(compWriter, file); err != nil {
			_ = pipeWriter.CloseWithError(err)
			return err
		}
		if err := compWriter.Close(); err != nil {
			_ = pipeWriter.CloseWithError(err)
			return err
		}
		return pipeWriter.Close()
	})

	return eg.Wait()
}

// schemaVersion is best-effort: on any failure it logs and substitutes the
// sentinel so the backup itself proceeds.
func (w *Writer) schemaVersion(ctx context.Context) string {
	if w.Schema == nil {
		return catalog.SchemaVersionUnknown
	}
	version, err := w.Schema.CurrentVersion(ctx)
	if err != nil || version == "" {
		w.Log.Warn().Err(err).Msg("schema version unavailable, using sentinel")
		return catalog.SchemaVersionUnknown
	}
	return version
}
