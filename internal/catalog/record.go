// Package catalog enumerates the snapshots resident in the remote store.
// The store itself is the single source of truth; there is no local index.
package catalog

import (
	"strings"
	"time"
)

// Provenance records why a snapshot was created.
type Provenance string

const (
	ProvenanceShutdown Provenance = "shutdown"
	ProvenanceManual   Provenance = "manual"
	ProvenancePeriodic Provenance = "periodic"
)

// StatusLatestRestored marks the record handed back by a successful restore.
// Advisory only: it is never written back to the store, so a fresh listing
// will not carry it.
const StatusLatestRestored = "latest_restored"

// Record is one snapshot in the remote store.
type Record struct {
	ID            string     `json:"id"`
	Provenance    Provenance `json:"provenance"`
	CreatedAt     time.Time  `json:"created_at"`
	SizeBytes     int64      `json:"size_bytes"`
	SchemaVersion string     `json:"schema_version"`
	Status        string     `json:"status,omitempty"`
}

const (
	idPrefix    = "app-"
	idExtension = ".db"

	// Metadata stamped on every snapshot object at write time.
	MetaProvenance    = "provenance"
	MetaCreatedAt     = "created-at"
	MetaSchemaVersion = "schema-version"

	// SchemaVersionUnknown is stamped when the migration state cannot be
	// read at backup time.
	SchemaVersionUnknown = "unknown"
)

// idTimeFormat is RFC 3339 UTC with the colons stripped, since colons are
// not safe in object keys. Second precision; the object's own last-modified
// time remains the authoritative creation instant.
const idTimeFormat = "2006-01-02T150405Z"

// BuildID derives a snapshot id from its provenance and creation instant.
// compressionExt is "" or a ".gz"/".zst" suffix appended after the .db
// extension.
func BuildID(p Provenance, when time.Time, compressionExt string) string {
	return idPrefix + string(p) + "-" + when.UTC().Truncate(time.Second).Format(idTimeFormat) + idExtension + compressionExt
}

// IsSnapshotKey reports whether an object key under the backup prefix names
// a snapshot, as opposed to unrelated data someone placed in the bucket.
func IsSnapshotKey(key string) bool {
	base := key
	if i := strings.LastIndex(key, "/"); i >= 0 {
		base = key[i+1:]
	}
	if !strings.HasPrefix(base, idPrefix) {
		return false
	}
	return strings.HasSuffix(base, idExtension) ||
		strings.HasSuffix(base, idExtension+".gz") ||
		strings.HasSuffix(base, idExtension+".zst")
}

// CompressionExt returns the trailing compression suffix of a snapshot id,
// or "" for an uncompressed snapshot.
func CompressionExt(id string) string {
	switch {
	case strings.HasSuffix(id, ".gz"):
		return ".gz"
	case strings.HasSuffix(id, ".zst"):
		return ".zst"
	default:
		return ""
	}
}

// ParseProvenance recovers a snapshot's provenance. Object metadata written
// at backup time is authoritative; the substring scan over the key is a
// fallback for objects written before metadata was stamped. Anything
// unrecognized defaults to manual rather than erroring.
func ParseProvenance(key string, metadata map[string]string) Provenance {
	if v := MetaValue(metadata, MetaProvenance); v != "" {
		switch Provenance(strings.ToLower(v)) {
		case ProvenanceShutdown:
			return ProvenanceShutdown
		case ProvenancePeriodic:
			return ProvenancePeriodic
		case ProvenanceManual:
			return ProvenanceManual
		}
	}
	switch {
	case strings.Contains(key, "-shutdown-"):
		return ProvenanceShutdown
	case strings.Contains(key, "-periodic-"):
		return ProvenancePeriodic
	default:
		return ProvenanceManual
	}
}

// MetaValue looks up a user-metadata value tolerating the header
// canonicalization the S3 wire format applies ("provenance" may come back
// as "Provenance" or "X-Amz-Meta-Provenance" depending on the call path).
func MetaValue(metadata map[string]string, name string) string {
	for k, v := range metadata {
		if strings.EqualFold(k, name) || strings.EqualFold(k, "x-amz-meta-"+name) {
			return v
		}
	}
	return ""
}
