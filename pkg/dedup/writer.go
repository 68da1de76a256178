// pkg/dedup/writer.go
package dedup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/creativeyann17/go-dedup/internal/cache"
	"github.com/creativeyann17/go-dedup/internal/declutter"
)

// WriteChunks materializes the chunk store under targetRoot, fanning chunk
// files into declutterLevels nested subdirectories. Chunks already present
// keep their file untouched, so re-running against the same inputs is
// idempotent. The cache is persisted once at the end and, when
// FlushInterval is set, periodically while dirty files complete.
func (d *Deduper) WriteChunks(targetRoot string, declutterLevels int) (*Result, error) {
	if declutterLevels < 0 {
		return nil, ErrInvalidDeclutterLevels
	}
	if err := os.MkdirAll(targetRoot, 0755); err != nil {
		return nil, fmt.Errorf("create target directory: %w", err)
	}

	d.cache.SetDeclutterLevels(declutterLevels)

	result := &Result{
		FilesTotal:  d.FilesTotal(),
		FilesHashed: d.FilesHashed(),
		FilesReused: d.FilesReused(),
	}

	// Digests already confirmed present in the store during this run
	ensured := make(map[string]bool)

	lastFlush := time.Now()
	var runErr error

	// On error the channel is still drained so the producers can wind down
	for event := range d.Chunks() {
		if event.Err != nil && runErr == nil {
			runErr = event.Err
			continue
		}
		if runErr != nil || event.Err != nil {
			continue
		}

		result.TotalChunks++

		if ensured[event.Digest] {
			result.DedupedChunks++
			result.BytesSaved += event.Size
		} else {
			created, err := d.writeChunk(targetRoot, declutterLevels, event)
			if err != nil {
				runErr = err
				continue
			}
			ensured[event.Digest] = true
			if created {
				result.UniqueChunks++
				result.BytesWritten += event.Size
			} else {
				result.DedupedChunks++
				result.BytesSaved += event.Size
			}
		}

		if event.Dirty && d.opts.FlushInterval > 0 && time.Since(lastFlush) >= d.opts.FlushInterval {
			if err := d.WriteCache(); err != nil {
				runErr = err
				continue
			}
			lastFlush = time.Now()
		}
	}

	if runErr != nil {
		return nil, runErr
	}

	if err := d.WriteCache(); err != nil {
		return nil, err
	}
	return result, nil
}

// writeChunk places one chunk at its content-addressed path unless a file
// already exists there. Returns whether a new chunk file was created.
func (d *Deduper) writeChunk(targetRoot string, declutterLevels int, event ChunkEvent) (bool, error) {
	chunkPath := declutter.Join(targetRoot, event.Digest, declutterLevels)

	if _, err := os.Stat(chunkPath); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat chunk %s: %w", chunkPath, err)
	}

	data := event.Data
	if data == nil {
		// A cache-served chunk missing from the store: pull the byte range
		// back out of the source file
		var err error
		data, err = d.readSourceRange(event)
		if err != nil {
			return false, err
		}
	}

	if err := cache.WriteAtomic(chunkPath, data); err != nil {
		return false, fmt.Errorf("write chunk %s: %w", event.Digest, err)
	}
	return true, nil
}

// readSourceRange reads the chunk's byte range from its source file
func (d *Deduper) readSourceRange(event ChunkEvent) ([]byte, error) {
	absPath := filepath.Join(d.opts.SourcePath, filepath.FromSlash(event.Path))

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", event.Path, err)
	}
	defer file.Close()

	data := make([]byte, event.Size)
	section := io.NewSectionReader(file, int64(event.Offset), int64(event.Size))
	if _, err := io.ReadFull(section, data); err != nil {
		return nil, fmt.Errorf("read source %s at %d: %w", event.Path, event.Offset, err)
	}
	return data, nil
}
