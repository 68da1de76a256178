// pkg/hydrate/check.go
package hydrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/creativeyann17/go-dedup/internal/declutter"
	"github.com/creativeyann17/go-dedup/internal/walker"
)

// CheckStore verifies that every chunk referenced by the cache exists in
// the store with its recorded size. Only metadata is read, no chunk body.
func (h *Hydrator) CheckStore(declutterLevels int) (*CheckResult, error) {
	if declutterLevels < 0 {
		return nil, ErrInvalidDeclutterLevels
	}

	result := &CheckResult{}
	expected := make(map[string]uint64)

	for _, rec := range h.cache.Records() {
		chunkSize := rec.EffectiveChunkSize()
		var offset uint64
		for _, digest := range rec.Chunks {
			size := rec.Size - offset
			if size > chunkSize {
				size = chunkSize
			}
			offset += size
			expected[digest] = size
		}
	}

	digests := make([]string, 0, len(expected))
	for digest := range expected {
		digests = append(digests, digest)
	}
	sort.Strings(digests)

	for _, digest := range digests {
		result.ChunksChecked++

		info, err := os.Stat(declutter.Join(h.opts.SourcePath, digest, declutterLevels))
		if err != nil {
			if os.IsNotExist(err) {
				result.Missing = append(result.Missing, digest)
				continue
			}
			return nil, fmt.Errorf("stat chunk %s: %w", digest, err)
		}
		if uint64(info.Size()) != expected[digest] {
			result.SizeMismatch = append(result.SizeMismatch, digest)
		}
	}

	return result, nil
}

// ListExtraFiles returns store-relative paths of files under the store root
// that no cache record references, for example chunks left behind after
// source files were deleted and the cache refreshed.
func (h *Hydrator) ListExtraFiles(declutterLevels int) ([]string, error) {
	if declutterLevels < 0 {
		return nil, ErrInvalidDeclutterLevels
	}

	referenced := make(map[string]bool)
	for _, rec := range h.cache.Records() {
		for _, digest := range rec.Chunks {
			referenced[declutter.Path(digest, declutterLevels)] = true
		}
	}

	var extra []string
	err := walker.Walk(h.opts.SourcePath, walker.Options{}, func(relPath string, info os.FileInfo) error {
		if !referenced[relPath] {
			extra = append(extra, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk store: %w", err)
	}
	return extra, nil
}

// DeleteExtraFiles removes every file ListExtraFiles reports
func (h *Hydrator) DeleteExtraFiles(declutterLevels int) (int, error) {
	extra, err := h.ListExtraFiles(declutterLevels)
	if err != nil {
		return 0, err
	}

	for i, relPath := range extra {
		if err := os.Remove(filepath.Join(h.opts.SourcePath, relPath)); err != nil {
			return i, fmt.Errorf("delete %s: %w", relPath, err)
		}
	}
	return len(extra), nil
}
