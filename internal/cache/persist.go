// internal/cache/persist.go
package cache

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// readCacheFile reads a serialized cache document, transparently
// decompressing it according to the filename suffix.
func readCacheFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		defer dec.Close()
		data, err := io.ReadAll(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return data, nil

	case strings.HasSuffix(path, ".xz"):
		dec, err := xz.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		data, err := io.ReadAll(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return data, nil

	default:
		return raw, nil
	}
}

// writeCacheFile persists a serialized cache document atomically,
// compressing it according to the filename suffix.
func writeCacheFile(path string, data []byte) error {
	switch {
	case strings.HasSuffix(path, ".zst"):
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf)
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			return fmt.Errorf("compress cache: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("close zstd writer: %w", err)
		}
		data = buf.Bytes()

	case strings.HasSuffix(path, ".xz"):
		var buf bytes.Buffer
		enc, err := xz.NewWriter(&buf)
		if err != nil {
			return fmt.Errorf("create xz writer: %w", err)
		}
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			return fmt.Errorf("compress cache: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("close xz writer: %w", err)
		}
		data = buf.Bytes()
	}

	return WriteAtomic(path, data)
}

// WriteAtomic writes data to path through a sibling temp file and a final
// rename, so a crash mid-write never leaves a partial document at path.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	// Best-effort durability before the rename
	_ = tmp.Sync()

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
