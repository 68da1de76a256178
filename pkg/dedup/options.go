// pkg/dedup/options.go
package dedup

import (
	"runtime"
	"time"

	"github.com/creativeyann17/go-dedup/internal/chunker"
	"github.com/creativeyann17/go-dedup/internal/hashing"
)

// Options configures a dedup run
type Options struct {
	// Source directory to deduplicate
	SourcePath string

	// Cache files, primary first. The primary is the one written; later
	// files are read-only fallbacks consulted on lookup misses.
	CacheFiles []string

	// Hashing algorithm for chunk digests
	// Default: sha1
	Algorithm hashing.Algorithm

	// SameFileSystem skips source entries on a different device than the root
	SameFileSystem bool

	// UseGitignore respects .gitignore files to exclude matching paths
	UseGitignore bool

	// Chunk size in bytes
	// Default: 4 MiB
	ChunkSize uint64

	// Maximum number of concurrent hashing workers
	// Default: runtime.NumCPU()
	MaxThreads int

	// FlushInterval bounds how often WriteChunks persists the cache while
	// dirty files complete. 0 disables periodic flushing; the cache is
	// still written once at the end of WriteChunks.
	FlushInterval time.Duration

	// Progress receives progress updates (optional)
	Progress ProgressCallback
}

// Validate checks if options are valid and fills in defaults
func (o *Options) Validate() error {
	if o.SourcePath == "" {
		return ErrSourceRequired
	}
	if len(o.CacheFiles) == 0 {
		return ErrCacheFileRequired
	}
	if o.Algorithm == "" {
		o.Algorithm = hashing.Default
	}
	if !o.Algorithm.Valid() {
		_, err := hashing.Parse(string(o.Algorithm))
		return err
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = chunker.DefaultChunkSize
	}
	if o.MaxThreads <= 0 {
		o.MaxThreads = runtime.NumCPU()
	}
	return nil
}
