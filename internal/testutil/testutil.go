// Package testutil provides shared fixtures for tests that need a source file
// on disk.
//
// Typical usage:
//
//	func TestWords(t *testing.T) {
//	    path := testutil.WriteTextFile(t, "sample.txt", testutil.CanalText)
//	    p, err := processor.NewFile(path)
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CanalText is the classic palindrome sentence used across tests.
const CanalText = "A man a plan a canal Panama"

// SampleText is a short multi-line source with repeated words and pairs.
const SampleText = `The quick brown fox jumps over the lazy dog.
The dog sleeps; the fox runs!
Was it a car or a cat I saw?
`

// WriteTextFile writes content to a new file called name inside a fresh
// temporary directory and returns its path.
func WriteTextFile(tb testing.TB, name, content string) string {
	tb.Helper()

	return WriteBytes(tb, name, []byte(content))
}

// WriteBytes is WriteTextFile for raw, possibly non-UTF-8, content.
func WriteBytes(tb testing.TB, name string, data []byte) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write fixture %q: %v", path, err)
	}
	return path
}

// MissingPath returns a .txt path inside a temporary directory that does not exist.
func MissingPath(tb testing.TB) string {
	tb.Helper()

	return filepath.Join(tb.TempDir(), "does-not-exist.txt")
}

// AssertDescending fails the test unless counts never increase.
func AssertDescending(tb testing.TB, counts []int) {
	tb.Helper()

	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[i-1] {
			tb.Errorf("counts not descending at %d: %d > %d (%v)", i, counts[i], counts[i-1], counts)
			return
		}
	}
}
