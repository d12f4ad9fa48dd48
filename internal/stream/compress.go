package stream

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Compression names a stream codec.
type Compression string

const (
	CompressionAuto Compression = "auto"
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionS2   Compression = "s2"
)

// ParseCompression validates a codec name. Empty means auto.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CompressionAuto, nil
	case CompressionAuto, CompressionNone, CompressionGzip, CompressionZstd, CompressionS2:
		return c, nil
	}
	return "", fmt.Errorf("unknown compression %q (want auto, none, gzip, zstd or s2)", s)
}

// Resolve turns auto into a concrete codec using the file extension of path.
func (c Compression) Resolve(path string) Compression {
	if c != CompressionAuto && c != "" {
		return c
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".s2", ".sz":
		return CompressionS2
	}
	return CompressionNone
}

// NewReader wraps r with a decompressor. Closing the result releases the
// decompressor and closes r when r is an io.Closer.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone, CompressionAuto, "":
		return readCloser{Reader: r, closers: []io.Closer{asCloser(r)}}, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return readCloser{Reader: zr, closers: []io.Closer{zr, asCloser(r)}}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		rc := zr.IOReadCloser()
		return readCloser{Reader: rc, closers: []io.Closer{rc, asCloser(r)}}, nil
	case CompressionS2:
		return readCloser{Reader: s2.NewReader(r), closers: []io.Closer{asCloser(r)}}, nil
	}
	return nil, fmt.Errorf("unsupported compression %q", c)
}

// NewWriter wraps w with a compressor. Closing the result flushes the
// compressor and closes w when w is an io.Closer.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone, CompressionAuto, "":
		return writeCloser{Writer: w, closers: []io.Closer{asCloser(w)}}, nil
	case CompressionGzip:
		zw := gzip.NewWriter(w)
		return writeCloser{Writer: zw, closers: []io.Closer{zw, asCloser(w)}}, nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return writeCloser{Writer: zw, closers: []io.Closer{zw, asCloser(w)}}, nil
	case CompressionS2:
		zw := s2.NewWriter(w)
		return writeCloser{Writer: zw, closers: []io.Closer{zw, asCloser(w)}}, nil
	}
	return nil, fmt.Errorf("unsupported compression %q", c)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func asCloser(v any) io.Closer {
	if c, ok := v.(io.Closer); ok {
		return c
	}
	return nopCloser{}
}

func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r readCloser) Close() error { return closeAll(r.closers) }

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w writeCloser) Close() error { return closeAll(w.closers) }
