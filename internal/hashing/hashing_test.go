// internal/hashing/hashing_test.go
package hashing

import (
	"errors"
	"testing"
)

func TestParseValid(t *testing.T) {
	for _, name := range []string{"md5", "sha1", "sha256", "sha512", "blake3"} {
		a, err := Parse(name)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", name, err)
		}
		if string(a) != name {
			t.Errorf("Parse(%q) returned %q", name, a)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	for _, name := range []string{"", "sha3", "SHA1", "crc32"} {
		if _, err := Parse(name); !errors.Is(err, ErrUnknownAlgorithm) {
			t.Errorf("Parse(%q): expected ErrUnknownAlgorithm, got %v", name, err)
		}
	}
}

func TestSumKnownVectors(t *testing.T) {
	// Digests of "hello rust" under each algorithm
	input := []byte("hello rust")
	vectors := []struct {
		algorithm Algorithm
		expected  string
	}{
		{MD5, "0fb073cd346f46f60c15e719f3820482"},
		{SHA1, "5503f5edc1bba66a7733c5ec38f4e9d449021be9"},
		{SHA256, "e8c73ac958a87f17906b092bd99f37038788ee23b271574aad6d5bf1c76cc61c"},
		{SHA512, "e6eda213df25f96ca380dd07640df530574e380c1b93d5d863fec05d5908a4880a3075fef4a438cfb1023cc51affb4624002f54b4790fe8362c7de032eb39aaa"},
	}

	for _, v := range vectors {
		got := v.algorithm.Sum(input)
		if got != v.expected {
			t.Errorf("%s: expected %s, got %s", v.algorithm, v.expected, got)
		}
	}
}

func TestSumHelloWorldSHA1(t *testing.T) {
	got := SHA1.Sum([]byte("Hello, World!"))
	want := "0a0a9f2a6772942557ab5355d76af442f8f65e01"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestHexLen(t *testing.T) {
	lengths := map[Algorithm]int{
		MD5:    32,
		SHA1:   40,
		SHA256: 64,
		SHA512: 128,
		BLAKE3: 64,
	}
	for a, want := range lengths {
		if got := a.HexLen(); got != want {
			t.Errorf("%s: expected hex length %d, got %d", a, want, got)
		}
		if got := len(a.Sum([]byte("x"))); got != want {
			t.Errorf("%s: digest length %d, expected %d", a, got, want)
		}
	}
}

func TestSumDeterministic(t *testing.T) {
	for _, a := range All {
		if a.Sum([]byte("same")) != a.Sum([]byte("same")) {
			t.Errorf("%s: same input produced different digests", a)
		}
		if a.Sum([]byte("one")) == a.Sum([]byte("two")) {
			t.Errorf("%s: different inputs produced same digest", a)
		}
	}
}
