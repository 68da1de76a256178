// pkg/hydrate/hydrate.go
package hydrate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/creativeyann17/go-dedup/internal/cache"
	"github.com/creativeyann17/go-dedup/internal/declutter"
	"github.com/creativeyann17/go-dedup/pkg/godedup"
)

// Hydrator rebuilds original files from a content-addressed chunk store
// using the cache written during dedup.
type Hydrator struct {
	opts  Options
	cache *cache.Cache
}

// New loads the cache layers and prepares for hydration. The hashing
// algorithm is taken from the cache header; it is only needed when Verify
// is enabled.
func New(opts Options) (*Hydrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	c, err := cache.Load(opts.CacheFiles, "")
	if err != nil {
		return nil, err
	}

	return &Hydrator{opts: opts, cache: c}, nil
}

// FilesTotal returns the number of files the cache describes
func (h *Hydrator) FilesTotal() int {
	return h.cache.Len()
}

// Warnings returns non-fatal observations from the cache load
func (h *Hydrator) Warnings() []string {
	return h.cache.Warnings()
}

// RestoreFiles reconstructs every file in the cache under targetRoot,
// concatenating each file's chunks in order and restoring its recorded
// modification time. declutterLevels must match the level used during
// dedup. The store is checked for missing chunks up front; an incomplete
// store fails before any output is written.
func (h *Hydrator) RestoreFiles(targetRoot string, declutterLevels int) (*Result, error) {
	if declutterLevels < 0 {
		return nil, ErrInvalidDeclutterLevels
	}

	missing, err := h.cache.ListMissingChunks(h.opts.SourcePath, declutterLevels)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingChunks, strings.Join(missing, ", "))
	}

	if err := os.MkdirAll(targetRoot, 0755); err != nil {
		return nil, fmt.Errorf("create target directory: %w", err)
	}

	records := h.cache.Records()
	h.emit(ProgressEvent{Type: EventStart, Total: int64(len(records))})

	result := &Result{}
	for _, rec := range records {
		written, err := h.restoreFile(targetRoot, declutterLevels, rec, result)
		if err != nil {
			h.emit(ProgressEvent{Type: EventError, FilePath: rec.Path})
			return nil, err
		}
		result.FilesRestored++
		result.BytesWritten += written
		h.emit(ProgressEvent{
			Type:     EventFileComplete,
			FilePath: rec.Path,
			Current:  int64(written),
			Total:    int64(rec.Size),
		})
	}

	h.emit(ProgressEvent{Type: EventComplete, Total: int64(len(records))})
	return result, nil
}

// restoreFile writes one file by concatenating its chunks from the store
// and sets its modification time afterwards.
func (h *Hydrator) restoreFile(targetRoot string, declutterLevels int, rec *cache.FileRecord, result *Result) (uint64, error) {
	targetPath := filepath.Join(targetRoot, filepath.FromSlash(rec.Path))
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return 0, fmt.Errorf("create directory for %s: %w", rec.Path, err)
	}

	out, err := os.Create(targetPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", rec.Path, err)
	}

	h.emit(ProgressEvent{
		Type:     EventFileStart,
		FilePath: rec.Path,
		Total:    int64(rec.Size),
	})

	var written uint64
	for _, digest := range rec.Chunks {
		n, err := h.copyChunk(out, digest, declutterLevels, rec.Path, &written)
		if err != nil {
			out.Close()
			return written, err
		}
		written += n
		result.ChunksRead++
	}

	if err := out.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", rec.Path, err)
	}

	// Restore the recorded modification time so a re-run of dedup over the
	// hydrated tree sees the files as unchanged
	if err := os.Chtimes(targetPath, rec.ModTime, rec.ModTime); err != nil {
		return written, fmt.Errorf("set mtime on %s: %w", rec.Path, err)
	}

	return written, nil
}

// copyChunk appends one chunk from the store to out, optionally verifying
// its digest on the way through.
func (h *Hydrator) copyChunk(out *os.File, digest string, declutterLevels int, relPath string, fileWritten *uint64) (uint64, error) {
	chunkPath := declutter.Join(h.opts.SourcePath, digest, declutterLevels)

	chunk, err := os.Open(chunkPath)
	if err != nil {
		return 0, fmt.Errorf("open chunk %s: %w", digest, err)
	}
	defer chunk.Close()

	base := *fileWritten
	var chunkRead uint64
	var reader io.Reader = &godedup.ProgressReader{
		Reader: chunk,
		OnRead: func(n int) {
			chunkRead += uint64(n)
			h.emit(ProgressEvent{
				Type:         EventFileProgress,
				FilePath:     relPath,
				Current:      int64(base + chunkRead),
				CurrentBytes: base + chunkRead,
			})
		},
	}

	if !h.opts.Verify {
		n, err := io.Copy(out, reader)
		if err != nil {
			return 0, fmt.Errorf("copy chunk %s: %w", digest, err)
		}
		return uint64(n), nil
	}

	hasher := h.cache.Algorithm().New()
	n, err := io.Copy(io.MultiWriter(out, hasher), reader)
	if err != nil {
		return 0, fmt.Errorf("copy chunk %s: %w", digest, err)
	}
	if got := fmt.Sprintf("%x", hasher.Sum(nil)); got != digest {
		return uint64(n), fmt.Errorf("%w: %s hashes to %s", ErrChunkDigestMismatch, digest, got)
	}
	return uint64(n), nil
}

func (h *Hydrator) emit(event ProgressEvent) {
	if h.opts.Progress != nil {
		h.opts.Progress(event)
	}
}
