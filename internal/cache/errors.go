// internal/cache/errors.go
package cache

import "errors"

var (
	// ErrAlgorithmMismatch is returned when a loaded cache file declares a
	// different hashing algorithm than the primary
	ErrAlgorithmMismatch = errors.New("cache hashing algorithm mismatch")

	// ErrUnsupportedVersion is returned for cache files written by a newer
	// format version than this build understands
	ErrUnsupportedVersion = errors.New("unsupported cache format version")

	// ErrCorrupt is returned when a cache file cannot be parsed
	ErrCorrupt = errors.New("corrupt cache file")
)
