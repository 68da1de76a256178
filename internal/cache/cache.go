// internal/cache/cache.go
package cache

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/creativeyann17/go-dedup/internal/chunker"
	"github.com/creativeyann17/go-dedup/internal/declutter"
	"github.com/creativeyann17/go-dedup/internal/hashing"
)

// FileRecord describes one source file and the ordered chunk digests that
// reconstruct it. Paths are relative to the source root and use forward
// slashes regardless of platform.
type FileRecord struct {
	Path      string
	Size      uint64
	ModTime   time.Time
	Chunks    []string
	ChunkSize uint64 // 0 means the default chunk size
}

// EffectiveChunkSize returns the chunk size the record was hashed with
func (r *FileRecord) EffectiveChunkSize() uint64 {
	if r.ChunkSize != 0 {
		return r.ChunkSize
	}
	return chunker.DefaultChunkSize
}

// Unchanged reports whether the record still matches a file of the given
// size and modification time. Equality is exact, down to nanoseconds.
func (r *FileRecord) Unchanged(size uint64, modTime time.Time) bool {
	return r.Size == size && r.ModTime.Equal(modTime)
}

// Cache is the in-memory index mapping relative paths to file records. It
// is safe for concurrent use; hashing workers install records while the
// caller may snapshot and persist at any moment.
type Cache struct {
	mu              sync.Mutex
	algorithm       hashing.Algorithm
	declutterLevels int
	records         map[string]*FileRecord
	primary         string
	warnings        []string
}

// New creates an empty cache committed to the given algorithm
func New(algorithm hashing.Algorithm) *Cache {
	return &Cache{
		algorithm: algorithm,
		records:   make(map[string]*FileRecord),
	}
}

// Load builds a cache from a layered list of cache files. The first path is
// the writable primary; it does not need to exist. Files are loaded in
// reverse order so that earlier (more accurate) files overwrite later ones
// and the primary's entries win.
//
// With algorithm == "", the algorithm is adopted from the first file that
// declares one; otherwise every loaded file must declare the given
// algorithm. A missing non-primary file is recorded as a warning, an
// unparseable file is a fatal error.
func Load(paths []string, algorithm hashing.Algorithm) (*Cache, error) {
	c := New(algorithm)
	if len(paths) > 0 {
		c.primary = paths[0]
	}

	for i := len(paths) - 1; i >= 0; i-- {
		path := paths[i]

		data, err := readCacheFile(path)
		if os.IsNotExist(err) {
			// The primary starts empty; fallbacks are skipped with a note
			if i != 0 {
				c.warnings = append(c.warnings, fmt.Sprintf("cache file %s not found, skipping", path))
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read cache %s: %w", path, err)
		}

		records, declared, err := decodeCache(data)
		if err != nil {
			return nil, fmt.Errorf("parse cache %s: %w", path, err)
		}

		if declared != "" {
			if c.algorithm == "" {
				c.algorithm = declared
			} else if declared != c.algorithm {
				return nil, fmt.Errorf("%w: %s declares %s, expected %s",
					ErrAlgorithmMismatch, path, declared, c.algorithm)
			}
		}

		for _, rec := range records {
			c.records[rec.Path] = rec
		}
	}

	return c, nil
}

// Algorithm returns the algorithm every record in this cache is hashed with
func (c *Cache) Algorithm() hashing.Algorithm {
	return c.algorithm
}

// Primary returns the path the cache persists to, if any
func (c *Cache) Primary() string {
	return c.primary
}

// Warnings returns non-fatal observations collected during Load
func (c *Cache) Warnings() []string {
	return c.warnings
}

// SetDeclutterLevels records the fan-out level written into the cache
// header, so future readers can recover it without being told.
func (c *Cache) SetDeclutterLevels(levels int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.declutterLevels = levels
}

// Get returns the record for a relative path
func (c *Cache) Get(path string) (*FileRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[path]
	return rec, ok
}

// Put installs or replaces a record
func (c *Cache) Put(rec *FileRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[rec.Path] = rec
}

// Remove drops the record for a relative path
func (c *Cache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, path)
}

// Retain drops every record whose path is not in keep. Used after a walk to
// forget files that no longer exist as regular files in the source tree.
func (c *Cache) Retain(keep map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for path := range c.records {
		if !keep[path] {
			delete(c.records, path)
		}
	}
}

// Len returns the number of records
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Records returns a snapshot of all records sorted by path. The record
// pointers are shared; callers must treat them as read-only.
func (c *Cache) Records() []*FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := make([]*FileRecord, 0, len(c.records))
	for _, rec := range c.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})
	return records
}

// Persist atomically writes the cache to its primary path. The snapshot is
// taken under the lock, the file I/O happens outside it. Without a primary
// path this is a no-op.
func (c *Cache) Persist() error {
	if c.primary == "" {
		return nil
	}

	c.mu.Lock()
	records := make([]*FileRecord, 0, len(c.records))
	for _, rec := range c.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})
	levels := c.declutterLevels
	algorithm := c.algorithm
	c.mu.Unlock()

	data, err := encodeCache(records, algorithm, levels)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	return writeCacheFile(c.primary, data)
}

// ListMissingChunks returns every digest referenced by any record whose
// content-addressed path is absent from the store under targetRoot. Only
// metadata is touched, no chunk body is read.
func (c *Cache) ListMissingChunks(targetRoot string, declutterLevels int) ([]string, error) {
	seen := make(map[string]bool)
	var missing []string

	for _, rec := range c.Records() {
		for _, digest := range rec.Chunks {
			if seen[digest] {
				continue
			}
			seen[digest] = true

			path := declutter.Join(targetRoot, digest, declutterLevels)
			if _, err := os.Stat(path); err != nil {
				if os.IsNotExist(err) {
					missing = append(missing, digest)
					continue
				}
				return nil, fmt.Errorf("stat chunk %s: %w", path, err)
			}
		}
	}

	sort.Strings(missing)
	return missing, nil
}
