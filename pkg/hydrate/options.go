// pkg/hydrate/options.go
package hydrate

// Options configures a hydration run
type Options struct {
	// SourcePath is the chunk store root written by a previous dedup run
	SourcePath string

	// Cache files, most accurate first, merged the same way as during dedup
	CacheFiles []string

	// Verify re-hashes every chunk while restoring and fails on a digest
	// mismatch. Off by default: chunks are named by their own digest, so
	// the store is trusted unless tampering is suspected.
	Verify bool

	// Progress receives progress updates (optional)
	Progress ProgressCallback
}

// Validate checks if options are valid
func (o *Options) Validate() error {
	if o.SourcePath == "" {
		return ErrSourceRequired
	}
	if len(o.CacheFiles) == 0 {
		return ErrCacheFileRequired
	}
	return nil
}
