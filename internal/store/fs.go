package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FS is a filesystem-backed Store. Object metadata lives in a sidecar
// ".meta" file next to each object. Used by tests and local development;
// production deployments run against S3.
type FS struct {
	BasePath string
}

func NewFS(path string) *FS {
	return &FS{BasePath: path}
}

const metaSuffix = ".meta"

func (f *FS) Put(ctx context.Context, key string, reader io.Reader, _ int64, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(f.BasePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := io.Copy(file, reader); err != nil {
		return err
	}
	if len(metadata) > 0 {
		payload, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target+metaSuffix, payload, 0o600); err != nil {
			return err
		}
	}
	return nil
}

func (f *FS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(f.BasePath, filepath.FromSlash(key)))
}

func (f *FS) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	path := filepath.Join(f.BasePath, filepath.FromSlash(key))
	info, err := os.Stat(path)
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{Key: key, Size: info.Size(), Modified: info.ModTime(), Metadata: f.readMeta(path)}, nil
}

func (f *FS) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos := []ObjectInfo{}
	_ = filepath.WalkDir(f.BasePath, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		rel, relErr := filepath.Rel(f.BasePath, path)
		if relErr != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		stat, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		infos = append(infos, ObjectInfo{Key: key, Size: stat.Size(), Modified: stat.ModTime(), Metadata: f.readMeta(path)})
		return nil
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

func (f *FS) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(f.BasePath, filepath.FromSlash(key))
	_ = os.Remove(target + metaSuffix)
	return os.Remove(target)
}

func (f *FS) readMeta(path string) map[string]string {
	payload, err := os.ReadFile(path + metaSuffix)
	if err != nil {
		return nil
	}
	meta := map[string]string{}
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil
	}
	return meta
}
