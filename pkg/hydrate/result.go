// pkg/hydrate/result.go
package hydrate

// Result contains statistics of a completed hydration run
type Result struct {
	FilesRestored int    // Files written under the target root
	ChunksRead    uint64 // Chunk reads performed (duplicates count each time)
	BytesWritten  uint64 // Bytes written into restored files
}

// CheckResult describes the outcome of a store consistency check
type CheckResult struct {
	ChunksChecked int      // Distinct digests examined
	Missing       []string // Digests with no file in the store
	SizeMismatch  []string // Digests whose chunk file has the wrong size
}

// OK reports whether the store holds every referenced chunk at the
// expected size
func (c *CheckResult) OK() bool {
	return len(c.Missing) == 0 && len(c.SizeMismatch) == 0
}
