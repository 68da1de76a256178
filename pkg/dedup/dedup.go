// pkg/dedup/dedup.go
package dedup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/creativeyann17/go-dedup/internal/cache"
	"github.com/creativeyann17/go-dedup/internal/chunker"
	"github.com/creativeyann17/go-dedup/internal/walker"
)

// readBufferSize is the buffered-reader size used while hashing files
const readBufferSize = 256 * 1024

// fileTask is one dirty file queued for hashing
type fileTask struct {
	relPath string // slash-separated, relative to the source root
	size    uint64
}

// ChunkEvent is one element of the streaming chunk sequence. Dirty chunks
// carry their bytes; cache-served chunks carry metadata only and the writer
// re-reads the range from the source if the store misses the chunk. A
// non-nil Err terminates the sequence.
type ChunkEvent struct {
	Digest string
	Path   string // slash-separated source path
	Offset uint64
	Size   uint64
	Data   []byte // nil when served from cache
	Dirty  bool
	Err    error
}

// Deduper walks a source tree, maintains the chunk cache and writes
// deduplicated chunk data to a content-addressed store.
type Deduper struct {
	opts  Options
	cache *cache.Cache
	dirty []fileTask
	clean []*cache.FileRecord
}

// New initializes a Deduper: it loads the cache files in reverse order (so
// the primary's entries win), walks the source tree, and schedules every
// new or changed file for re-hashing. Files present in the cache but gone
// from the tree are dropped. No file content is read yet.
func New(opts Options) (*Deduper, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	c, err := cache.Load(opts.CacheFiles, opts.Algorithm)
	if err != nil {
		return nil, err
	}

	d := &Deduper{opts: opts, cache: c}

	keep := make(map[string]bool)
	walkOpts := walker.Options{
		SameFileSystem: opts.SameFileSystem,
		UseGitignore:   opts.UseGitignore,
	}
	err = walker.Walk(opts.SourcePath, walkOpts, func(relPath string, info os.FileInfo) error {
		rel := filepath.ToSlash(relPath)
		size := uint64(info.Size())

		if rec, ok := c.Get(rel); ok && rec.Unchanged(size, info.ModTime()) {
			keep[rel] = true
			d.clean = append(d.clean, rec)
			return nil
		}

		d.dirty = append(d.dirty, fileTask{relPath: rel, size: size})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk source: %w", err)
	}

	// Stale records are refreshed after hashing; deleted files are gone now
	c.Retain(keep)

	return d, nil
}

// FilesTotal returns the number of regular files seen in the walk
func (d *Deduper) FilesTotal() int {
	return len(d.dirty) + len(d.clean)
}

// FilesHashed returns the number of files scheduled for re-hashing
func (d *Deduper) FilesHashed() int {
	return len(d.dirty)
}

// FilesReused returns the number of files served entirely from cache
func (d *Deduper) FilesReused() int {
	return len(d.clean)
}

// Warnings returns non-fatal observations from the cache load
func (d *Deduper) Warnings() []string {
	return d.cache.Warnings()
}

// WriteCache atomically persists the current in-memory cache to the primary
// cache path. It may be called at any moment, including while Chunks is
// producing; the persisted state reflects every file completed so far.
func (d *Deduper) WriteCache() error {
	return d.cache.Persist()
}

// Chunks walks the scheduled files and emits every chunk of every current
// regular file as it becomes available. Chunks of a single file arrive in
// offset order; ordering across files is arbitrary. Dirty files are hashed
// in parallel, each owned by one worker from open to close. The channel is
// bounded, so a slow consumer applies backpressure to the hashing workers.
//
// The sequence is not restartable; call Chunks (or WriteChunks) once per
// Deduper.
func (d *Deduper) Chunks() <-chan ChunkEvent {
	out := make(chan ChunkEvent, d.opts.MaxThreads*4)

	go func() {
		defer close(out)

		d.emit(ProgressEvent{Type: EventStart, Total: int64(d.FilesTotal())})

		abort := make(chan struct{})
		var failOnce sync.Once
		fail := func(err error) {
			failOnce.Do(func() {
				out <- ChunkEvent{Err: err}
				close(abort)
			})
		}

		tasks := make(chan fileTask)
		go func() {
			defer close(tasks)
			for _, task := range d.dirty {
				select {
				case tasks <- task:
				case <-abort:
					return
				}
			}
		}()

		var wg sync.WaitGroup
		for i := 0; i < d.opts.MaxThreads; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for task := range tasks {
					select {
					case <-abort:
						continue
					default:
					}
					if err := d.hashFile(task, out, abort); err != nil {
						d.emit(ProgressEvent{Type: EventError, FilePath: task.relPath})
						fail(err)
					}
				}
			}()
		}

		// Cache-served chunks carry no bytes and need no file I/O, so they
		// are emitted from here while the workers hash in the background
		emitClean := func() {
			for _, rec := range d.clean {
				chunkSize := rec.EffectiveChunkSize()
				var offset uint64
				for _, digest := range rec.Chunks {
					size := rec.Size - offset
					if size > chunkSize {
						size = chunkSize
					}
					select {
					case out <- ChunkEvent{
						Digest: digest,
						Path:   rec.Path,
						Offset: offset,
						Size:   size,
						Dirty:  false,
					}:
					case <-abort:
						return
					}
					offset += size
				}
				d.emit(ProgressEvent{Type: EventFileComplete, FilePath: rec.Path})
			}
		}
		emitClean()

		wg.Wait()
		d.emit(ProgressEvent{Type: EventComplete, Total: int64(d.FilesTotal())})
	}()

	return out
}

// hashFile chunks and hashes one dirty file, emitting its chunks in offset
// order and installing the refreshed record into the cache once the file is
// fully read. A path that stopped being a regular file since the walk is
// dropped silently.
func (d *Deduper) hashFile(task fileTask, out chan<- ChunkEvent, abort <-chan struct{}) error {
	absPath := filepath.Join(d.opts.SourcePath, filepath.FromSlash(task.relPath))

	info, err := os.Lstat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", task.relPath, err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", task.relPath, err)
	}
	defer file.Close()

	d.emit(ProgressEvent{
		Type:     EventFileStart,
		FilePath: task.relPath,
		Total:    int64(info.Size()),
	})

	ck := chunker.New(bufio.NewReaderSize(file, readBufferSize), d.opts.ChunkSize)
	digests := []string{}
	var read uint64

	for {
		chunk, err := ck.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", task.relPath, err)
		}

		digest := d.opts.Algorithm.Sum(chunk.Data)
		digests = append(digests, digest)
		read += chunk.Size()

		select {
		case out <- ChunkEvent{
			Digest: digest,
			Path:   task.relPath,
			Offset: chunk.Offset,
			Size:   chunk.Size(),
			Data:   chunk.Data,
			Dirty:  true,
		}:
		case <-abort:
			return nil
		}

		d.emit(ProgressEvent{
			Type:         EventFileProgress,
			FilePath:     task.relPath,
			Current:      int64(read),
			Total:        int64(info.Size()),
			CurrentBytes: read,
		})
	}

	d.cache.Put(&cache.FileRecord{
		Path:      task.relPath,
		Size:      uint64(info.Size()),
		ModTime:   info.ModTime(),
		Chunks:    digests,
		ChunkSize: d.opts.ChunkSize,
	})

	d.emit(ProgressEvent{
		Type:     EventFileComplete,
		FilePath: task.relPath,
		Current:  int64(info.Size()),
		Total:    int64(info.Size()),
	})
	return nil
}

func (d *Deduper) emit(event ProgressEvent) {
	if d.opts.Progress != nil {
		d.opts.Progress(event)
	}
}
