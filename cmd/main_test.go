package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := parseFlags([]string{"in", "out"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("parseFlags failed: %v", err)
		}
		if cfg.SourceRoot != "in" || cfg.DestRoot != "out" || cfg.Quality != 80 || cfg.Threads != 0 || cfg.Chroma != "444" {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("interleaved flags", func(t *testing.T) {
		cfg, err := parseFlags([]string{"-t", "3", "in", "--quality", "92.5", "out", "-m"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("parseFlags failed: %v", err)
		}
		if cfg.SourceRoot != "in" || cfg.DestRoot != "out" || cfg.Quality != 92.5 || cfg.Threads != 3 || !cfg.KeepMetadata {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("double dash ends flags", func(t *testing.T) {
		cfg, err := parseFlags([]string{"-q", "70", "--", "-in", "--out"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("parseFlags failed: %v", err)
		}
		if cfg.SourceRoot != "-in" || cfg.DestRoot != "--out" || cfg.Quality != 70 {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("double dash after a positional", func(t *testing.T) {
		cfg, err := parseFlags([]string{"in", "-t", "2", "--", "-v"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("parseFlags failed: %v", err)
		}
		if cfg.SourceRoot != "in" || cfg.DestRoot != "-v" || cfg.Verbose || cfg.Threads != 2 {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("out of range quality is accepted", func(t *testing.T) {
		cfg, err := parseFlags([]string{"-q", "0", "in", "out"}, &bytes.Buffer{})
		if err != nil || cfg.Quality != 0 {
			t.Errorf("got %v, %v", cfg.Quality, err)
		}
	})

	errCases := map[string][]string{
		"no positionals":   {},
		"one positional":   {"in"},
		"three positional": {"a", "b", "c"},
		"bad quality":      {"-q", "high", "in", "out"},
		"negative threads": {"-t", "-1", "in", "out"},
		"bad chroma":       {"--chroma", "411", "in", "out"},
		"unknown flag":     {"--fast", "in", "out"},
	}
	for name, args := range errCases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseFlags(args, &bytes.Buffer{}); err == nil || err == errExit {
				t.Errorf("Expected usage error, got %v", err)
			}
		})
	}
}

func TestRun_HelpAndVersion(t *testing.T) {
	for _, arg := range []string{"-h", "--help", "-V", "--version"} {
		var out, errOut bytes.Buffer
		if code := run([]string{arg}, &out, &errOut); code != 0 {
			t.Errorf("%s: exit %d", arg, code)
		}
		if out.Len() == 0 {
			t.Errorf("%s printed nothing", arg)
		}
	}

	var out bytes.Buffer
	run([]string{"--help"}, &out, &bytes.Buffer{})
	for _, want := range []string{"--quality", "--threads", "<source> <destination>"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("usage lacks %q", want)
		}
	}
}

func TestRun_ExitCodes(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"only-one"}, &out, &errOut); code != 2 {
		t.Errorf("missing destination: exit %d, want 2", code)
	}
	if !strings.Contains(errOut.String(), "[ERROR]") {
		t.Errorf("no error printed: %q", errOut.String())
	}

	missing := filepath.Join(t.TempDir(), "nope")
	errOut.Reset()
	if code := run([]string{"--no-progress", missing, t.TempDir()}, &out, &errOut); code != 1 {
		t.Errorf("missing source: exit %d, want 1", code)
	}
}

func TestRun_Scenario(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "a.png"), img.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(src, "sub"), 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "c.png"), []byte("junk"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	var out, errOut bytes.Buffer
	code := run([]string{src, dst, "-q", "85", "-t", "2", "--no-progress"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit %d, stderr %q", code, errOut.String())
	}
	if !strings.Contains(out.String(), "Done: 1 succeeded, 0 skipped, 1 failed") {
		t.Errorf("unexpected stdout %q", out.String())
	}
	want := filepath.Join(src, "sub", "c.png") + ": "
	if !strings.HasPrefix(errOut.String(), want) {
		t.Errorf("unexpected stderr %q", errOut.String())
	}
	if _, err := os.Stat(filepath.Join(dst, "a.jpg")); err != nil {
		t.Errorf("a.jpg missing: %v", err)
	}
}
