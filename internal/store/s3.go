package store

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/venuekit/backupd/internal/config"
)

// S3 talks to an S3-compatible object store through minio-go.
type S3 struct {
	Client *minio.Client
	Bucket string
}

// NewS3 builds a client from validated store settings. The transport uses
// keep-alive with a capped connection pool and a fixed per-request timeout so
// a wedged endpoint cannot hang an operation indefinitely.
func NewS3(cfg config.StoreConfig, timeout time.Duration) (*S3, error) {
	endpoint := cfg.Endpoint
	secure := cfg.UseSSL
	if strings.HasPrefix(endpoint, "https://") {
		endpoint = strings.TrimPrefix(endpoint, "https://")
		secure = true
	} else if strings.HasPrefix(endpoint, "http://") {
		endpoint = strings.TrimPrefix(endpoint, "http://")
		secure = false
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 16
	transport.MaxIdleConnsPerHost = 16
	transport.IdleConnTimeout = 90 * time.Second
	if timeout > 0 {
		transport.ResponseHeaderTimeout = timeout
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:    secure,
		Region:    cfg.Region,
		Transport: transport,
		BucketLookup: func() minio.BucketLookupType {
			if cfg.ForcePathStyle {
				return minio.BucketLookupPath
			}
			return minio.BucketLookupAuto
		}(),
	})
	if err != nil {
		return nil, err
	}
	return &S3{Client: client, Bucket: cfg.Bucket}, nil
}

func (s *S3) Put(ctx context.Context, key string, reader io.Reader, size int64, metadata map[string]string) error {
	opts := minio.PutObjectOptions{UserMetadata: metadata, ContentType: "application/octet-stream"}
	_, err := s.Client.PutObject(ctx, s.Bucket, key, reader, size, opts)
	return err
}

func (s *S3) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.Client.GetObject(ctx, s.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject defers the request; surface missing objects here instead of
	// on the first Read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

func (s *S3) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	stat, err := s.Client.StatObject(ctx, s.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{Key: key, Size: stat.Size, Modified: stat.LastModified, ETag: stat.ETag, Metadata: stat.UserMetadata}, nil
}

func (s *S3) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	ch := s.Client.ListObjects(ctx, s.Bucket, minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    true,
		WithMetadata: true,
	})
	infos := []ObjectInfo{}
	for obj := range ch {
		if obj.Err != nil {
			return nil, obj.Err
		}
		infos = append(infos, ObjectInfo{Key: obj.Key, Size: obj.Size, Modified: obj.LastModified, ETag: obj.ETag, Metadata: obj.UserMetadata})
		if limit > 0 && len(infos) >= limit {
			break
		}
	}
	return infos, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	return s.Client.RemoveObject(ctx, s.Bucket, key, minio.RemoveObjectOptions{})
}
