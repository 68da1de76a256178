// pkg/dedup/errors.go
package dedup

import "errors"

var (
	// ErrSourceRequired is returned when the source path is not specified
	ErrSourceRequired = errors.New("source path is required")

	// ErrCacheFileRequired is returned when no cache file is specified
	ErrCacheFileRequired = errors.New("at least one cache file is required")

	// ErrInvalidDeclutterLevels is returned for a negative declutter level
	ErrInvalidDeclutterLevels = errors.New("declutter levels must not be negative")
)
