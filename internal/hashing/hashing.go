// internal/hashing/hashing.go
package hashing

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
)

// ErrUnknownAlgorithm is returned when an algorithm name is not recognized
var ErrUnknownAlgorithm = errors.New("unknown hashing algorithm")

// Algorithm identifies the hash function used for chunk digests.
// The tag is serialized into the cache header, so every cache file
// commits to exactly one algorithm.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
	BLAKE3 Algorithm = "blake3"
)

// Default is the algorithm used when none is configured
const Default = SHA1

// All lists every supported algorithm tag, for CLI help and validation
var All = []Algorithm{MD5, SHA1, SHA256, SHA512, BLAKE3}

// Parse validates a user-supplied algorithm name
func Parse(name string) (Algorithm, error) {
	a := Algorithm(name)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return a, nil
}

// Valid reports whether the tag names a supported algorithm
func (a Algorithm) Valid() bool {
	switch a {
	case MD5, SHA1, SHA256, SHA512, BLAKE3:
		return true
	}
	return false
}

// New returns a fresh hash state for the algorithm.
// Parse gates every external input, so an invalid tag here is a bug.
func (a Algorithm) New() hash.Hash {
	switch a {
	case MD5:
		return md5.New()
	case SHA1:
		return sha1.New()
	case SHA256:
		return sha256.New()
	case SHA512:
		return sha512.New()
	case BLAKE3:
		return blake3.New()
	default:
		panic("hashing: invalid algorithm " + string(a))
	}
}

// Sum computes the digest of data as a lowercase hex string
func (a Algorithm) Sum(data []byte) string {
	h := a.New()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HexLen returns the length of a hex digest under this algorithm
func (a Algorithm) HexLen() int {
	return a.New().Size() * 2
}
