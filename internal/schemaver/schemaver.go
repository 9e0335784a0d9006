// Package schemaver reports the schema-migration state stamped onto each
// backup. It is consulted best-effort: a backup must never block or fail
// because the migration state cannot be read.
package schemaver

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Provider exposes the current schema version.
type Provider interface {
	CurrentVersion(ctx context.Context) (string, error)
}

// DirProvider derives the version from the highest-numbered migration file
// in a directory, mirroring how the application's migration runner orders
// them (NNNN_description.sql).
type DirProvider struct {
	Dir string
}

func NewDirProvider(dir string) *DirProvider {
	return &DirProvider{Dir: dir}
}

func (p *DirProvider) CurrentVersion(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		return "", fmt.Errorf("read migrations dir: %w", err)
	}
	var versions []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		if idx := strings.IndexByte(name, '_'); idx > 0 {
			versions = append(versions, name[:idx])
		}
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("no migration files in %s", p.Dir)
	}
	sort.Strings(versions)
	return versions[len(versions)-1], nil
}

// Static returns a fixed version; used when the host application injects the
// version itself instead of pointing at a migrations directory.
type Static string

func (s Static) CurrentVersion(context.Context) (string, error) {
	return string(s), nil
}
