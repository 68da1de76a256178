// cmd/godedup/hydrate.go

package main

import (
	"fmt"
	"os"

	"github.com/creativeyann17/go-dedup/pkg/godedup"
	"github.com/creativeyann17/go-dedup/pkg/hydrate"
)

type hydrateConfig struct {
	source          string
	target          string
	cacheFiles      []string
	declutterLevels int
	verify          bool
	quiet           bool
	verbose         bool
}

func runHydrate(cfg hydrateConfig) error {
	opts := hydrate.Options{
		SourcePath: cfg.source,
		CacheFiles: cfg.cacheFiles,
		Verify:     cfg.verify,
	}

	log := func(format string, args ...interface{}) {
		if !cfg.quiet {
			fmt.Printf(format+"\n", args...)
		}
	}

	log("Starting hydration...")
	log("  Store:            %s", cfg.source)
	log("  Target:           %s", cfg.target)
	log("  Declutter levels: %d", cfg.declutterLevels)
	if cfg.verify {
		log("  Mode:             VERIFY (chunks re-hashed)")
	}
	log("")

	var progress = func() {}
	if !cfg.quiet {
		callback, container := hydrate.ProgressBarCallback()
		opts.Progress = callback
		progress = func() { container.Wait() }
	}

	h, err := hydrate.New(opts)
	if err != nil {
		return err
	}

	for _, warning := range h.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	if cfg.verbose {
		log("Restoring %d files", h.FilesTotal())
	}

	result, err := h.RestoreFiles(cfg.target, cfg.declutterLevels)
	progress()
	if err != nil {
		return err
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Files restored: %d\n", result.FilesRestored)
	fmt.Printf("  Chunks read:    %d\n", result.ChunksRead)
	fmt.Printf("  Bytes written:  %s\n", godedup.FormatSize(result.BytesWritten))

	return nil
}
