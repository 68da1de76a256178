// pkg/dedup/result.go
package dedup

// Result contains statistics of a completed dedup run
type Result struct {
	FilesTotal  int // Regular files seen in the walk
	FilesHashed int // Files re-hashed (cache miss or stale)
	FilesReused int // Files served entirely from cache

	TotalChunks   uint64 // Chunks processed
	UniqueChunks  uint64 // Chunk files created in the store this run
	DedupedChunks uint64 // Chunks already present (in store or this run)

	BytesWritten uint64 // Bytes written to the store
	BytesSaved   uint64 // Bytes not written thanks to deduplication
}

// DedupRatio returns the share of deduplicated chunks as a percentage
func (r *Result) DedupRatio() float64 {
	if r.TotalChunks == 0 {
		return 0
	}
	return float64(r.DedupedChunks) / float64(r.TotalChunks) * 100
}
