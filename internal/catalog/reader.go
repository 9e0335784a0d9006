package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/venuekit/backupd/internal/store"
)

// listCap bounds any single listing; the sweeper relies on it as the
// generous upper limit for a full-catalog scan.
const listCap = 1000

// Reader lists snapshots newest-first.
type Reader struct {
	Store  store.Store
	Prefix string
}

func NewReader(st store.Store, prefix string) *Reader {
	return &Reader{Store: st, Prefix: prefix}
}

// List returns up to limit records, descending by creation time. limit <= 0
// means the full (capped) catalog.
func (r *Reader) List(ctx context.Context, limit int) ([]Record, error) {
	objects, err := r.Store.List(ctx, r.Prefix, listCap)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	records := make([]Record, 0, len(objects))
	for _, obj := range objects {
		if !IsSnapshotKey(obj.Key) {
			continue
		}
		records = append(records, Record{
			ID:            strings.TrimPrefix(obj.Key, r.Prefix),
			Provenance:    ParseProvenance(obj.Key, obj.Metadata),
			CreatedAt:     obj.Modified,
			SizeBytes:     obj.Size,
			SchemaVersion: schemaVersion(obj.Metadata),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Key returns the full object key for a record id.
func (r *Reader) Key(id string) string {
	return r.Prefix + id
}

func schemaVersion(metadata map[string]string) string {
	if v := MetaValue(metadata, MetaSchemaVersion); v != "" {
		return v
	}
	return SchemaVersionUnknown
}
