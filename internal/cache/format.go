// internal/cache/format.go
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/creativeyann17/go-dedup/internal/chunker"
	"github.com/creativeyann17/go-dedup/internal/hashing"
)

// FormatVersion is the schema version the writer emits. Readers accept any
// version up to and including this one.
const FormatVersion = 1

// onDiskTime stores a modification time split into whole seconds and
// nanoseconds since the epoch.
type onDiskTime struct {
	Secs  int64 `json:"s"`
	Nanos int64 `json:"n"`
}

func timeToDisk(t time.Time) onDiskTime {
	return onDiskTime{Secs: t.Unix(), Nanos: int64(t.Nanosecond())}
}

func (o onDiskTime) time() time.Time {
	return time.Unix(o.Secs, o.Nanos)
}

// onDiskRecord is the leaf node of the v1 path tree
type onDiskRecord struct {
	Size      uint64     `json:"s"`
	ModTime   onDiskTime `json:"m"`
	Chunks    []string   `json:"c"`
	ChunkSize uint64     `json:"z,omitempty"`
}

// onDiskCache is the v1 top-level document. Tree nodes are either a leaf
// record or a mapping from path segment to child node.
type onDiskCache struct {
	Version   int            `json:"v"`
	Algorithm string         `json:"a"`
	Declutter int            `json:"d,omitempty"`
	Tree      map[string]any `json:"t"`
}

// v0Record is one entry of the legacy flat-list format: a plain JSON array
// of records, each carrying its own path and algorithm tag.
type v0Record struct {
	Path      string     `json:"path"`
	Size      uint64     `json:"s"`
	ModTime   onDiskTime `json:"m"`
	Chunks    []string   `json:"c"`
	Algorithm string     `json:"a"`
	ChunkSize uint64     `json:"z,omitempty"`
}

// encodeCache serializes records into the current (v1) document
func encodeCache(records []*FileRecord, algorithm hashing.Algorithm, declutterLevels int) ([]byte, error) {
	tree := make(map[string]any)

	for _, rec := range records {
		if rec.Chunks == nil {
			continue
		}

		leaf := onDiskRecord{
			Size:    rec.Size,
			ModTime: timeToDisk(rec.ModTime),
			Chunks:  rec.Chunks,
		}
		if rec.ChunkSize != 0 && rec.ChunkSize != chunker.DefaultChunkSize {
			leaf.ChunkSize = rec.ChunkSize
		}

		segments := strings.Split(rec.Path, "/")
		node := tree
		for _, segment := range segments[:len(segments)-1] {
			child, ok := node[segment].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[segment] = child
			}
			node = child
		}
		node[segments[len(segments)-1]] = leaf
	}

	return json.Marshal(onDiskCache{
		Version:   FormatVersion,
		Algorithm: string(algorithm),
		Declutter: declutterLevels,
		Tree:      tree,
	})
}

// decodeCache parses a cache document of any supported version and returns
// its records together with the declared algorithm. Records that were never
// hashed (null chunk list) are dropped; they cannot be reused anyway.
func decodeCache(data []byte) ([]*FileRecord, hashing.Algorithm, error) {
	trimmed := bytes.TrimLeftFunc(data, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return decodeV0(trimmed)
	}

	var doc struct {
		Version   int             `json:"v"`
		Algorithm string          `json:"a"`
		Tree      json.RawMessage `json:"t"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Version > FormatVersion {
		return nil, "", fmt.Errorf("%w: %d (max %d)", ErrUnsupportedVersion, doc.Version, FormatVersion)
	}
	if doc.Version < 1 {
		return nil, "", fmt.Errorf("%w: missing version field", ErrCorrupt)
	}

	algorithm, err := hashing.Parse(doc.Algorithm)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var records []*FileRecord
	if len(doc.Tree) > 0 {
		if err := decodeTree("", doc.Tree, &records); err != nil {
			return nil, "", err
		}
	}
	return records, algorithm, nil
}

// decodeTree walks a v1 tree node. A node is a leaf iff it parses as a
// record with size and mtime present; anything else recurses as a directory.
func decodeTree(prefix string, raw json.RawMessage, records *[]*FileRecord) error {
	var probe struct {
		Size    *uint64     `json:"s"`
		ModTime *onDiskTime `json:"m"`
		Chunks  []string    `json:"c"`
		ChunkSz uint64      `json:"z"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.Size != nil && probe.ModTime != nil {
		if prefix == "" {
			return fmt.Errorf("%w: file record at tree root", ErrCorrupt)
		}
		if probe.Chunks == nil {
			return nil
		}
		*records = append(*records, &FileRecord{
			Path:      prefix,
			Size:      *probe.Size,
			ModTime:   probe.ModTime.time(),
			Chunks:    probe.Chunks,
			ChunkSize: probe.ChunkSz,
		})
		return nil
	}

	var children map[string]json.RawMessage
	if err := json.Unmarshal(raw, &children); err != nil {
		return fmt.Errorf("%w: invalid tree node at %q: %v", ErrCorrupt, prefix, err)
	}
	for segment, child := range children {
		childPath := segment
		if prefix != "" {
			childPath = prefix + "/" + segment
		}
		if err := decodeTree(childPath, child, records); err != nil {
			return err
		}
	}
	return nil
}

// decodeV0 parses the legacy flat-list document and upgrades it to the
// in-memory shape. The algorithm is taken from the records, which must all
// agree.
func decodeV0(data []byte) ([]*FileRecord, hashing.Algorithm, error) {
	var entries []v0Record
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var algorithm hashing.Algorithm
	var records []*FileRecord
	for _, e := range entries {
		a, err := hashing.Parse(e.Algorithm)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if algorithm == "" {
			algorithm = a
		} else if a != algorithm {
			return nil, "", fmt.Errorf("%w: mixed algorithms in legacy cache", ErrCorrupt)
		}
		if e.Chunks == nil {
			continue
		}
		records = append(records, &FileRecord{
			Path:      e.Path,
			Size:      e.Size,
			ModTime:   e.ModTime.time(),
			Chunks:    e.Chunks,
			ChunkSize: e.ChunkSize,
		})
	}
	return records, algorithm, nil
}
