// Package testutil provides utilities for testing.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/perf-annotate/pkg/model"
)

// GetTestDataPath returns the absolute path to a file in the testdata directory.
// It searches for testdata in the caller's directory and parent directories.
func GetTestDataPath(t *testing.T, filename string) string {
	t.Helper()

	_, callerFile, _, ok := runtime.Caller(1)
	if !ok {
		t.Fatal("failed to get caller file path")
	}

	dir := filepath.Dir(callerFile)
	for i := 0; i < 5; i++ {
		testdataPath := filepath.Join(dir, "testdata", filename)
		if _, err := os.Stat(testdataPath); err == nil {
			return testdataPath
		}
		dir = filepath.Dir(dir)
	}

	return filepath.Join("testdata", filename)
}

// WriteFile writes content to a file in the given directory and returns its path.
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

// F builds a stack frame.
func F(symbol, file string, line uint32) model.Frame {
	return model.Frame{Symbol: symbol, File: file, Line: line}
}

// S builds a sample from root-to-leaf frames.
func S(value uint64, frames ...model.Frame) *model.Sample {
	return &model.Sample{Stack: frames, Value: value}
}

// CollapsedProfile is a small collapsed-stack profile used by loader and CLI
// tests. Its totals: a.c:10 = 100, a.c:11 = 5, memcpy (no location) = 7.
const CollapsedProfile = `main (b.c:20);foo (a.c:10) 30
main (b.c:21);foo (a.c:10) 70
run (c.c:7);foo (a.c:11) 5
main (b.c:22);memcpy 7
`
