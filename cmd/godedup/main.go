package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/creativeyann17/go-dedup/internal/hashing"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cacheFiles []string
	var algorithmName string
	var sameFileSystem bool
	var declutterLevels int
	var decode bool
	var hydrateAlias bool
	var maxThreads int
	var useGitignore bool
	var verify bool
	var quiet bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "godedup [flags] SOURCE TARGET",
		Short: "go-dedup - deduplicate directory trees into content-addressed chunks",
		Long: "go-dedup splits files into fixed-size chunks named by their digest,\n" +
			"stores every chunk once, and restores the original tree from the\n" +
			"chunk store using a persistent cache.",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			algorithm, err := hashing.Parse(algorithmName)
			if err != nil {
				return err
			}

			source, target := args[0], args[1]

			if decode || hydrateAlias {
				return runHydrate(hydrateConfig{
					source:          source,
					target:          target,
					cacheFiles:      cacheFiles,
					declutterLevels: declutterLevels,
					verify:          verify,
					quiet:           quiet,
					verbose:         verbose,
				})
			}

			return runDedupe(dedupeConfig{
				source:          source,
				target:          target,
				cacheFiles:      cacheFiles,
				algorithm:       algorithm,
				sameFileSystem:  sameFileSystem,
				declutterLevels: declutterLevels,
				maxThreads:      maxThreads,
				useGitignore:    useGitignore,
				quiet:           quiet,
				verbose:         verbose,
			})
		},
	}

	cmd.Flags().StringArrayVar(&cacheFiles, "cache-file", nil,
		"Path to cache file (repeatable; most accurate first, the first is written)")
	cmd.Flags().StringVar(&algorithmName, "hashing-algorithm", string(hashing.Default),
		"Hashing algorithm for chunk filenames (md5|sha1|sha256|sha512|blake3)")
	cmd.Flags().BoolVar(&sameFileSystem, "same-file-system", false,
		"Limit file listing to same file system")
	cmd.Flags().IntVar(&declutterLevels, "declutter-levels", 0,
		"Declutter chunk files into this many subdirectory levels")
	cmd.Flags().BoolVarP(&decode, "decode", "d", false,
		"Invert behavior, restore tree from deduplicated data")
	cmd.Flags().BoolVar(&hydrateAlias, "hydrate", false, "Alias for --decode")
	_ = cmd.Flags().MarkHidden("hydrate")
	cmd.Flags().IntVarP(&maxThreads, "threads", "t", 0,
		"Max concurrent hashing threads (0 = number of CPUs)")
	cmd.Flags().BoolVar(&useGitignore, "use-gitignore", false,
		"Respect .gitignore files when listing the source")
	cmd.Flags().BoolVar(&verify, "verify", false,
		"Re-hash chunks while hydrating and fail on digest mismatch")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Minimal output (overrides verbose)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show detailed output")

	_ = cmd.MarkFlagRequired("cache-file")

	cmd.AddCommand(versionCmd())

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("go-dedup %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}
