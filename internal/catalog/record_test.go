package catalog

import (
	"testing"
	"time"
)

func TestBuildID(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 999_000_000, time.UTC)
	id := BuildID(ProvenanceManual, when, "")
	if id != "app-manual-2024-01-02T030405Z.db" {
		t.Fatalf("unexpected id: %s", id)
	}
	compressed := BuildID(ProvenancePeriodic, when, ".zst")
	if compressed != "app-periodic-2024-01-02T030405Z.db.zst" {
		t.Fatalf("unexpected compressed id: %s", compressed)
	}
}

func TestBuildIDStripsColons(t *testing.T) {
	id := BuildID(ProvenanceShutdown, time.Now(), "")
	for _, r := range id {
		if r == ':' {
			t.Fatalf("id contains a colon: %s", id)
		}
	}
}

func TestIsSnapshotKey(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"backups/app-manual-2024-01-02T030405Z.db", true},
		{"backups/app-periodic-2024-01-02T030405Z.db.gz", true},
		{"backups/app-shutdown-2024-01-02T030405Z.db.zst", true},
		{"backups/app-manual-2024-01-02T030405Z.db.meta", false},
		{"backups/readme.txt", false},
		{"backups/other-manual-2024-01-02T030405Z.db", false},
	}
	for _, tc := range cases {
		if got := IsSnapshotKey(tc.key); got != tc.want {
			t.Fatalf("IsSnapshotKey(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestParseProvenanceMetadataWins(t *testing.T) {
	// A key that reads as periodic but whose metadata says manual: the
	// metadata stamped at write time is authoritative.
	key := "backups/app-periodic-2024-01-02T030405Z.db"
	got := ParseProvenance(key, map[string]string{"X-Amz-Meta-Provenance": "manual"})
	if got != ProvenanceManual {
		t.Fatalf("expected manual from metadata, got %s", got)
	}
}

func TestParseProvenanceKeyFallback(t *testing.T) {
	cases := []struct {
		key  string
		want Provenance
	}{
		{"backups/app-shutdown-2024-01-02T030405Z.db", ProvenanceShutdown},
		{"backups/app-periodic-2024-01-02T030405Z.db", ProvenancePeriodic},
		{"backups/app-manual-2024-01-02T030405Z.db", ProvenanceManual},
		{"backups/app-weird-2024-01-02T030405Z.db", ProvenanceManual},
	}
	for _, tc := range cases {
		if got := ParseProvenance(tc.key, nil); got != tc.want {
			t.Fatalf("ParseProvenance(%q) = %s, want %s", tc.key, got, tc.want)
		}
	}
}

func TestParseProvenanceGarbageMetadata(t *testing.T) {
	got := ParseProvenance("backups/app-shutdown-2024-01-02T030405Z.db", map[string]string{"provenance": "bogus"})
	if got != ProvenanceShutdown {
		t.Fatalf("expected key fallback on bogus metadata, got %s", got)
	}
}

func TestMetaValueCanonicalization(t *testing.T) {
	for _, meta := range []map[string]string{
		{"provenance": "manual"},
		{"Provenance": "manual"},
		{"X-Amz-Meta-Provenance": "manual"},
	} {
		if got := MetaValue(meta, MetaProvenance); got != "manual" {
			t.Fatalf("MetaValue(%v) = %q", meta, got)
		}
	}
	if got := MetaValue(nil, MetaProvenance); got != "" {
		t.Fatalf("expected empty value for nil metadata, got %q", got)
	}
}

func TestCompressionExt(t *testing.T) {
	if got := CompressionExt("app-manual-2024-01-02T030405Z.db"); got != "" {
		t.Fatalf("unexpected ext: %q", got)
	}
	if got := CompressionExt("app-manual-2024-01-02T030405Z.db.gz"); got != ".gz" {
		t.Fatalf("unexpected ext: %q", got)
	}
	if got := CompressionExt("app-manual-2024-01-02T030405Z.db.zst"); got != ".zst" {
		t.Fatalf("unexpected ext: %q", got)
	}
}
