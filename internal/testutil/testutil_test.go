package testutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-textfreq/internal/testutil"
)

func TestWriteTextFile(t *testing.T) {
	path := testutil.WriteTextFile(t, "fixture.txt", "hello")

	if filepath.Base(path) != "fixture.txt" {
		t.Errorf("unexpected file name %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q; want %q", data, "hello")
	}
}

func TestMissingPath_DoesNotExist(t *testing.T) {
	path := testutil.MissingPath(t)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %q to be absent, stat err = %v", path, err)
	}
	if filepath.Ext(path) != ".txt" {
		t.Errorf("expected .txt suffix, got %q", path)
	}
}

// failTracker records Errorf calls instead of failing the real test.
type failTracker struct {
	testing.TB
	failed bool
}

func (f *failTracker) Errorf(string, ...any) { f.failed = true }

func TestAssertDescending(t *testing.T) {
	tests := []struct {
		name     string
		counts   []int
		wantFail bool
	}{
		{"empty", nil, false},
		{"single", []int{3}, false},
		{"descending with ties", []int{5, 3, 3, 1}, false},
		{"increase", []int{1, 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &failTracker{TB: t}
			testutil.AssertDescending(ft, tt.counts)
			if ft.failed != tt.wantFail {
				t.Errorf("AssertDescending(%v) failed = %v; want %v", tt.counts, ft.failed, tt.wantFail)
			}
		})
	}
}
