// Package compress wraps snapshot streams in optional gzip or zstd framing.
// The chosen codec is visible in the object key suffix so restore never
// needs out-of-band knowledge.
package compress

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

const (
	TypeNone = "none"
	TypeGzip = "gzip"
	TypeZstd = "zstd"
)

// Ext returns the key suffix for a codec ("" for none).
func Ext(kind string) (string, error) {
	switch kind {
	case "", TypeNone:
		return "", nil
	case TypeGzip:
		return ".gz", nil
	case TypeZstd:
		return ".zst", nil
	default:
		return "", fmt.Errorf("unsupported compression: %s", kind)
	}
}

// ForExt maps a key suffix back to a codec name.
func ForExt(ext string) string {
	switch ext {
	case ".gz":
		return TypeGzip
	case ".zst":
		return TypeZstd
	default:
		return TypeNone
	}
}

func WrapWriter(kind string, w io.Writer) (io.WriteCloser, error) {
	switch kind {
	case "", TypeNone:
		return nopWriteCloser{w}, nil
	case TypeGzip:
		return gzip.NewWriter(w), nil
	case TypeZstd:
		return zstd.NewWriter(w)
	default:
		return nil, fmt.Errorf("unsupported compression: %s", kind)
	}
}

func WrapReader(kind string, r io.Reader) (io.ReadCloser, error) {
	switch kind {
	case "", TypeNone:
		return io.NopCloser(r), nil
	case TypeGzip:
		return gzip.NewReader(r)
	case TypeZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{Decoder: dec}, nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", kind)
	}
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}
