package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	l, err := New(Options{File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Debug("hidden")
	l.Warn("shown")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "WARN") {
		t.Errorf("unexpected log content %q", data)
	}

	verbose, err := New(Options{File: path, Verbose: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !verbose.Core().Enabled(-1) {
		t.Error("verbose logger should enable DEBUG")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}
