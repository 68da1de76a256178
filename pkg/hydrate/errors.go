// pkg/hydrate/errors.go
package hydrate

import "errors"

var (
	// ErrSourceRequired is returned when the chunk-store path is not specified
	ErrSourceRequired = errors.New("source path is required")

	// ErrCacheFileRequired is returned when no cache file is specified
	ErrCacheFileRequired = errors.New("at least one cache file is required")

	// ErrInvalidDeclutterLevels is returned for a negative declutter level
	ErrInvalidDeclutterLevels = errors.New("declutter levels must not be negative")

	// ErrMissingChunks is returned when referenced chunks are absent from
	// the store; restoration fails before any output is written
	ErrMissingChunks = errors.New("chunks missing from store")

	// ErrChunkDigestMismatch is returned in verify mode when a chunk's
	// contents do not hash to its filename
	ErrChunkDigestMismatch = errors.New("chunk digest mismatch")
)
