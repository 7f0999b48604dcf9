package files_manager

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDestinationPath(t *testing.T) {
	src := filepath.Join("data", "src")
	dst := filepath.Join("out", "dst")

	tests := []struct {
		name string
		file string
		want string
	}{
		{"top level", filepath.Join(src, "a.png"), filepath.Join(dst, "a.jpg")},
		{"nested", filepath.Join(src, "a", "b", "c.png"), filepath.Join(dst, "a", "b", "c.jpg")},
		{"only last extension replaced", filepath.Join(src, "x.tar.png"), filepath.Join(dst, "x.tar.jpg")},
		{"upper case extension", filepath.Join(src, "Y.PNG"), filepath.Join(dst, "Y.jpg")},
		{"unclean input", src + string(filepath.Separator) + "." + string(filepath.Separator) + "d.png", filepath.Join(dst, "d.jpg")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DestinationPath(tc.file, src, dst)
			if err != nil {
				t.Fatalf("DestinationPath failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDestinationPath_OutsideRoot(t *testing.T) {
	src := filepath.Join("data", "src")
	for _, file := range []string{
		filepath.Join("data", "other", "a.png"),
		filepath.Join("data", "a.png"),
		src,
	} {
		_, err := DestinationPath(file, src, "dst")
		var mapErr *PathMappingError
		if !errors.As(err, &mapErr) {
			t.Errorf("%s: expected PathMappingError, got %v", file, err)
		}
	}
}

func TestDestinationDirs(t *testing.T) {
	src, dst := "src", "dst"
	files := []string{
		filepath.Join(src, "a.png"),
		filepath.Join(src, "b.png"),
		filepath.Join(src, "sub", "c.png"),
		filepath.Join(src, "sub", "d.png"),
		filepath.Join("elsewhere", "e.png"),
	}
	dirs, errs := DestinationDirs(files, src, dst)
	want := []string{dst, filepath.Join(dst, "sub")}
	if len(dirs) != len(want) {
		t.Fatalf("Expected %v, got %v", want, dirs)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("dir %d: got %q, want %q", i, dirs[i], want[i])
		}
	}
	if len(errs) != 1 {
		t.Fatalf("Expected 1 mapping error, got %d", len(errs))
	}
}

func TestMapDestinations(t *testing.T) {
	src, dst := "src", "dst"
	files := []string{
		filepath.Join(src, "b.png"),
		filepath.Join(src, "a.png"),
		filepath.Join(src, "a.PNG"),
		filepath.Join("elsewhere", "e.png"),
	}
	got := MapDestinations(files, src, dst)
	if len(got) != len(files) {
		t.Fatalf("got %d mappings, want %d", len(got), len(files))
	}

	byDest := map[string]string{}
	var conflicts, outside int
	for _, m := range got {
		var mapErr *PathMappingError
		switch {
		case m.Err == nil:
			if prev, ok := byDest[m.Dest]; ok {
				t.Errorf("%s and %s share %s", prev, m.Source, m.Dest)
			}
			byDest[m.Dest] = m.Source
		case errors.As(m.Err, &mapErr) && mapErr.Conflict != "":
			conflicts++
			if m.Source != filepath.Join(src, "a.png") || mapErr.Conflict != filepath.Join(src, "a.PNG") {
				t.Errorf("unexpected conflict %s vs %s", m.Source, mapErr.Conflict)
			}
			if m.Dest != "" {
				t.Errorf("conflicting file got a destination %q", m.Dest)
			}
		default:
			outside++
		}
	}
	if conflicts != 1 || outside != 1 || len(byDest) != 2 {
		t.Errorf("conflicts=%d outside=%d mapped=%d", conflicts, outside, len(byDest))
	}
	if byDest[filepath.Join(dst, "a.jpg")] != filepath.Join(src, "a.PNG") {
		t.Errorf("a.jpg claimed by %q", byDest[filepath.Join(dst, "a.jpg")])
	}
}

func TestCreateAndPruneDirs(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "existing")
	if err := os.MkdirAll(existing, 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	dirs := []string{
		existing,
		filepath.Join(root, "a", "b"),
		filepath.Join(root, "a", "c"),
	}
	created, err := CreateDirs(dirs)
	if err != nil {
		t.Fatalf("CreateDirs failed: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("Expected a, a/b, a/c to be created, got %v", created)
	}
	if created[len(created)-1] != filepath.Join(root, "a") {
		t.Fatalf("Expected parent last, got %v", created)
	}

	t.Run("creating twice is harmless", func(t *testing.T) {
		again, err := CreateDirs(dirs)
		if err != nil {
			t.Fatalf("CreateDirs failed: %v", err)
		}
		if len(again) != 0 {
			t.Fatalf("Expected nothing new, got %v", again)
		}
	})

	touch(t, filepath.Join(root, "a", "b", "out.jpg"))
	removed := PruneEmptyDirs(created)
	if removed != 1 {
		t.Fatalf("Expected only a/c to be removed, removed %d", removed)
	}
	if _, err := os.Stat(filepath.Join(root, "a", "c")); !os.IsNotExist(err) {
		t.Errorf("a/c should be gone, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "a", "b", "out.jpg")); err != nil {
		t.Errorf("a/b/out.jpg should remain: %v", err)
	}
	if _, err := os.Stat(existing); err != nil {
		t.Errorf("pre-existing dir must not be pruned: %v", err)
	}
}
