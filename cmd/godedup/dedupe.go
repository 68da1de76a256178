// cmd/godedup/dedupe.go

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/creativeyann17/go-dedup/internal/hashing"
	"github.com/creativeyann17/go-dedup/pkg/dedup"
	"github.com/creativeyann17/go-dedup/pkg/godedup"
)

// cacheFlushInterval bounds how often the cache is persisted during a run,
// so an interrupted run can resume without re-hashing completed files
const cacheFlushInterval = 10 * time.Second

type dedupeConfig struct {
	source          string
	target          string
	cacheFiles      []string
	algorithm       hashing.Algorithm
	sameFileSystem  bool
	declutterLevels int
	maxThreads      int
	useGitignore    bool
	quiet           bool
	verbose         bool
}

func runDedupe(cfg dedupeConfig) error {
	opts := dedup.Options{
		SourcePath:     cfg.source,
		CacheFiles:     cfg.cacheFiles,
		Algorithm:      cfg.algorithm,
		SameFileSystem: cfg.sameFileSystem,
		UseGitignore:   cfg.useGitignore,
		MaxThreads:     cfg.maxThreads,
		FlushInterval:  cacheFlushInterval,
	}

	log := func(format string, args ...interface{}) {
		if !cfg.quiet {
			fmt.Printf(format+"\n", args...)
		}
	}

	log("Starting dedup...")
	log("  Source:           %s", cfg.source)
	log("  Target:           %s", cfg.target)
	log("  Algorithm:        %s", cfg.algorithm)
	log("  Declutter levels: %d", cfg.declutterLevels)
	log("")

	var progress = func() {}
	if !cfg.quiet {
		callback, container := dedup.ProgressBarCallback()
		opts.Progress = callback
		progress = func() { container.Wait() }
	}

	d, err := dedup.New(opts)
	if err != nil {
		return err
	}

	for _, warning := range d.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	if cfg.verbose {
		log("Files: %d total, %d to hash, %d from cache",
			d.FilesTotal(), d.FilesHashed(), d.FilesReused())
	}

	result, err := d.WriteChunks(cfg.target, cfg.declutterLevels)
	progress()
	if err != nil {
		return err
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Files processed: %d (%d hashed, %d from cache)\n",
		result.FilesTotal, result.FilesHashed, result.FilesReused)
	fmt.Printf("  Chunks:          %d total, %d written, %d deduplicated\n",
		result.TotalChunks, result.UniqueChunks, result.DedupedChunks)
	fmt.Printf("  Written:         %s\n", godedup.FormatSize(result.BytesWritten))
	fmt.Printf("  Saved:           %s (%.1f%% dedup ratio)\n",
		godedup.FormatSize(result.BytesSaved), result.DedupRatio())

	return nil
}
