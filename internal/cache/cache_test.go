// internal/cache/cache_test.go
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creativeyann17/go-dedup/internal/declutter"
	"github.com/creativeyann17/go-dedup/internal/hashing"
)

func sampleRecord(path string) *FileRecord {
	return &FileRecord{
		Path:    path,
		Size:    13,
		ModTime: time.Unix(1700000000, 123456789),
		Chunks:  []string{"0a0a9f2a6772942557ab5355d76af442f8f65e01"},
	}
}

func TestPersistAndReload(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "cache.json")

	c, err := Load([]string{primary}, hashing.SHA1)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	c.Put(sampleRecord("sub/hello.txt"))
	c.Put(&FileRecord{
		Path:      "big.bin",
		Size:      10 * 1024 * 1024,
		ModTime:   time.Unix(1700000001, 0),
		Chunks:    []string{"aa", "bb", "cc"},
		ChunkSize: 1024,
	})
	if err := c.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	reloaded, err := Load([]string{primary}, hashing.SHA1)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("Expected 2 records, got %d", reloaded.Len())
	}

	rec, ok := reloaded.Get("sub/hello.txt")
	if !ok {
		t.Fatal("Record sub/hello.txt missing after reload")
	}
	if rec.Size != 13 {
		t.Errorf("Size: expected 13, got %d", rec.Size)
	}
	if !rec.ModTime.Equal(time.Unix(1700000000, 123456789)) {
		t.Errorf("ModTime not preserved to nanoseconds: %v", rec.ModTime)
	}
	if len(rec.Chunks) != 1 || rec.Chunks[0] != "0a0a9f2a6772942557ab5355d76af442f8f65e01" {
		t.Errorf("Chunks not preserved: %v", rec.Chunks)
	}
	if rec.ChunkSize != 0 {
		t.Errorf("Default chunk size must be omitted, got %d", rec.ChunkSize)
	}

	big, ok := reloaded.Get("big.bin")
	if !ok {
		t.Fatal("Record big.bin missing after reload")
	}
	if big.ChunkSize != 1024 {
		t.Errorf("Non-default chunk size not preserved: %d", big.ChunkSize)
	}
	if big.EffectiveChunkSize() != 1024 {
		t.Errorf("EffectiveChunkSize: expected 1024, got %d", big.EffectiveChunkSize())
	}
}

func TestPersistEmitsVersionedDocument(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "cache.json")

	c, _ := Load([]string{primary}, hashing.SHA256)
	c.Put(sampleRecord("a/b/c.txt"))
	c.SetDeclutterLevels(3)
	if err := c.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	raw, err := os.ReadFile(primary)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Cache is not valid JSON: %v", err)
	}
	if string(doc["v"]) != "1" {
		t.Errorf("Expected version 1, got %s", doc["v"])
	}
	if string(doc["a"]) != `"sha256"` {
		t.Errorf("Expected algorithm sha256, got %s", doc["a"])
	}
	if string(doc["d"]) != "3" {
		t.Errorf("Expected declutter level 3, got %s", doc["d"])
	}

	// The tree must nest by path segment
	var tree map[string]map[string]map[string]json.RawMessage
	if err := json.Unmarshal(doc["t"], &tree); err != nil {
		t.Fatalf("Tree is not nested by segments: %v", err)
	}
	if _, ok := tree["a"]["b"]["c.txt"]; !ok {
		t.Errorf("Expected t.a.b[\"c.txt\"], got %v", tree)
	}
}

func TestLayeredOverlay(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "new.json")
	fallback := filepath.Join(dir, "yesterday.json")

	// Seed the fallback only; the primary does not exist
	seed, _ := Load([]string{fallback}, hashing.SHA1)
	seed.Put(sampleRecord("from-fallback.txt"))
	if err := seed.Persist(); err != nil {
		t.Fatal(err)
	}

	c, err := Load([]string{primary, fallback}, hashing.SHA1)
	if err != nil {
		t.Fatalf("Layered load failed: %v", err)
	}
	if _, ok := c.Get("from-fallback.txt"); !ok {
		t.Fatal("Fallback record not visible through overlay")
	}

	// Persist writes the primary, which now carries the fallback's record
	if err := c.Persist(); err != nil {
		t.Fatal(err)
	}
	direct, err := Load([]string{primary}, hashing.SHA1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := direct.Get("from-fallback.txt"); !ok {
		t.Error("Primary does not contain the seeded record after persist")
	}
}

func TestLayeredOverlayPrimaryWins(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "new.json")
	fallback := filepath.Join(dir, "old.json")

	older, _ := Load([]string{fallback}, hashing.SHA1)
	older.Put(&FileRecord{Path: "f.txt", Size: 1, ModTime: time.Unix(1, 0), Chunks: []string{"old"}})
	if err := older.Persist(); err != nil {
		t.Fatal(err)
	}

	newer, _ := Load([]string{primary}, hashing.SHA1)
	newer.Put(&FileRecord{Path: "f.txt", Size: 2, ModTime: time.Unix(2, 0), Chunks: []string{"new"}})
	if err := newer.Persist(); err != nil {
		t.Fatal(err)
	}

	c, err := Load([]string{primary, fallback}, hashing.SHA1)
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := c.Get("f.txt")
	if !ok {
		t.Fatal("Record missing")
	}
	if rec.Chunks[0] != "new" {
		t.Errorf("Primary must win the overlay, got chunks %v", rec.Chunks)
	}
}

func TestMissingFallbackWarns(t *testing.T) {
	dir := t.TempDir()
	c, err := Load([]string{
		filepath.Join(dir, "new.json"),
		filepath.Join(dir, "nope.json"),
	}, hashing.SHA1)
	if err != nil {
		t.Fatalf("Missing fallback must not be fatal: %v", err)
	}
	if len(c.Warnings()) != 1 {
		t.Errorf("Expected 1 warning, got %v", c.Warnings())
	}
}

func TestAlgorithmMismatchFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	md5Cache, _ := Load([]string{path}, hashing.MD5)
	md5Cache.Put(sampleRecord("x.txt"))
	if err := md5Cache.Persist(); err != nil {
		t.Fatal(err)
	}

	if _, err := Load([]string{path}, hashing.SHA1); !errors.Is(err, ErrAlgorithmMismatch) {
		t.Errorf("Expected ErrAlgorithmMismatch, got %v", err)
	}
}

func TestAdoptAlgorithmFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	seeded, _ := Load([]string{path}, hashing.SHA512)
	seeded.Put(sampleRecord("x.txt"))
	if err := seeded.Persist(); err != nil {
		t.Fatal(err)
	}

	c, err := Load([]string{path}, "")
	if err != nil {
		t.Fatalf("Load without algorithm failed: %v", err)
	}
	if c.Algorithm() != hashing.SHA512 {
		t.Errorf("Expected adopted algorithm sha512, got %s", c.Algorithm())
	}
}

func TestCorruptCacheFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load([]string{path}, hashing.SHA1); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt, got %v", err)
	}
}

func TestFutureVersionRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	doc := `{"v": 2, "a": "sha1", "t": {}}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load([]string{path}, hashing.SHA1); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestUnknownHeaderFieldsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	doc := `{"v": 1, "a": "sha1", "future": true, "t": {"f.txt": {"s": 1, "m": {"s": 5, "n": 0}, "c": ["ab"], "extra": 7}}}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load([]string{path}, hashing.SHA1)
	if err != nil {
		t.Fatalf("Unknown fields must be ignored: %v", err)
	}
	if _, ok := c.Get("f.txt"); !ok {
		t.Error("Record lost when unknown fields present")
	}
}

func TestLegacyFlatListUpgrade(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	doc := `[{"path": "old/file.txt", "s": 42, "m": {"s": 1600000000, "n": 7}, "c": ["aa", "bb"], "a": "md5"}]`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load([]string{path}, hashing.MD5)
	if err != nil {
		t.Fatalf("Legacy load failed: %v", err)
	}
	rec, ok := c.Get("old/file.txt")
	if !ok {
		t.Fatal("Legacy record missing")
	}
	if rec.Size != 42 || len(rec.Chunks) != 2 {
		t.Errorf("Legacy record mangled: %+v", rec)
	}

	// The writer always emits the current version
	if err := c.Persist(); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	var upgraded struct {
		Version int `json:"v"`
	}
	if err := json.Unmarshal(raw, &upgraded); err != nil || upgraded.Version != 1 {
		t.Errorf("Expected upgraded v1 document, got %s", raw)
	}
}

func TestZstdRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json.zst")

	c, _ := Load([]string{path}, hashing.SHA1)
	c.Put(sampleRecord("compressed.txt"))
	if err := c.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	// The on-disk bytes must not be plain JSON
	raw, _ := os.ReadFile(path)
	if len(raw) == 0 || raw[0] == '{' {
		t.Error("zst cache does not look compressed")
	}

	reloaded, err := Load([]string{path}, hashing.SHA1)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if _, ok := reloaded.Get("compressed.txt"); !ok {
		t.Error("Record lost through zstd round trip")
	}
}

func TestXzRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json.xz")

	c, _ := Load([]string{path}, hashing.SHA1)
	c.Put(sampleRecord("compressed.txt"))
	if err := c.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	reloaded, err := Load([]string{path}, hashing.SHA1)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if _, ok := reloaded.Get("compressed.txt"); !ok {
		t.Error("Record lost through xz round trip")
	}
}

func TestPersistReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	c, _ := Load([]string{path}, hashing.SHA1)
	c.Put(sampleRecord("one.txt"))
	if err := c.Persist(); err != nil {
		t.Fatal(err)
	}
	c.Put(sampleRecord("two.txt"))
	if err := c.Persist(); err != nil {
		t.Fatal(err)
	}

	// No temp files may remain next to the cache
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Leftover files after persist: %v", names)
	}

	reloaded, err := Load([]string{path}, hashing.SHA1)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 2 {
		t.Errorf("Expected 2 records, got %d", reloaded.Len())
	}
}

func TestRetain(t *testing.T) {
	c := New(hashing.SHA1)
	c.Put(sampleRecord("keep.txt"))
	c.Put(sampleRecord("drop.txt"))

	c.Retain(map[string]bool{"keep.txt": true})

	if _, ok := c.Get("keep.txt"); !ok {
		t.Error("Retained record dropped")
	}
	if _, ok := c.Get("drop.txt"); ok {
		t.Error("Unretained record survived")
	}
}

func TestListMissingChunks(t *testing.T) {
	store := t.TempDir()

	present := "aabbccdd"
	absent := "eeff0011"
	chunkPath := declutter.Join(store, present, 2)
	if err := os.MkdirAll(filepath.Dir(chunkPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(chunkPath, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(hashing.SHA1)
	c.Put(&FileRecord{
		Path:    "f.txt",
		Size:    8,
		ModTime: time.Unix(1, 0),
		Chunks:  []string{present, absent, absent},
	})

	missing, err := c.ListMissingChunks(store, 2)
	if err != nil {
		t.Fatalf("ListMissingChunks failed: %v", err)
	}
	if len(missing) != 1 || missing[0] != absent {
		t.Errorf("Expected [%s], got %v", absent, missing)
	}
}

func TestRecordsSorted(t *testing.T) {
	c := New(hashing.SHA1)
	for _, p := range []string{"z.txt", "a.txt", "m/x.txt"} {
		c.Put(sampleRecord(p))
	}

	records := c.Records()
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].Path >= records[i].Path {
			t.Errorf("Records not sorted: %s before %s", records[i-1].Path, records[i].Path)
		}
	}
}

func TestEmptyChunkListSurvives(t *testing.T) {
	// An empty file has zero chunks; the empty list must round-trip and not
	// be confused with a never-hashed record
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	c, _ := Load([]string{path}, hashing.SHA1)
	c.Put(&FileRecord{Path: "empty.txt", Size: 0, ModTime: time.Unix(9, 9), Chunks: []string{}})
	if err := c.Persist(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load([]string{path}, hashing.SHA1)
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := reloaded.Get("empty.txt")
	if !ok {
		t.Fatal("Empty-file record lost")
	}
	if rec.Chunks == nil || len(rec.Chunks) != 0 {
		t.Errorf("Expected empty chunk list, got %v", rec.Chunks)
	}
}
