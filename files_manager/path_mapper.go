package files_manager

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const OutputExtension = ".jpg"

// DestinationPath mirrors filePath from sourceRoot into destRoot and swaps the
// extension for OutputExtension. It does not touch the filesystem.
func DestinationPath(filePath, sourceRoot, destRoot string) (string, error) {
	rel, err := filepath.Rel(sourceRoot, filePath)
	if err != nil {
		return "", &PathMappingError{Path: filePath, Root: sourceRoot}
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathMappingError{Path: filePath, Root: sourceRoot}
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + OutputExtension
	return filepath.Join(destRoot, rel), nil
}

// Mapping pairs an input file with its destination. Dest is empty when Err is set.
type Mapping struct {
	Source string
	Dest   string
	Err    error
}

// MapDestinations maps files in lexical order. A file whose destination was
// already claimed by an earlier file gets a *PathMappingError naming that file,
// so no two mappings share a Dest.
func MapDestinations(files []string, sourceRoot, destRoot string) []Mapping {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	claimed := make(map[string]string, len(sorted))
	out := make([]Mapping, 0, len(sorted))
	for _, file := range sorted {
		m := Mapping{Source: file}
		dst, err := DestinationPath(file, sourceRoot, destRoot)
		if err != nil {
			m.Err = err
		} else if other, ok := claimed[dst]; ok {
			m.Err = &PathMappingError{Path: file, Root: sourceRoot, Conflict: other}
		} else {
			claimed[dst] = file
			m.Dest = dst
		}
		out = append(out, m)
	}
	return out
}

// DestinationDirs returns the sorted distinct parent directories of the
// destination paths of files. Files that cannot be mapped are returned as errors.
func DestinationDirs(files []string, sourceRoot, destRoot string) ([]string, []error) {
	seen := make(map[string]struct{}, len(files))
	dirs := make([]string, 0, len(files))
	var errs []error
	for _, file := range files {
		dst, err := DestinationPath(file, sourceRoot, destRoot)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		dir := filepath.Dir(dst)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, errs
}

// CreateDirs creates every directory in dirs, ancestors included. An existing
// directory is not an error. It returns the directories that did not exist before,
// deepest first, so that PruneEmptyDirs can undo them.
func CreateDirs(dirs []string) ([]string, error) {
	created := make(map[string]struct{})
	for _, dir := range dirs {
		for _, d := range missingAncestors(dir) {
			created[d] = struct{}{}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return sortDeepestFirst(created), err
		}
	}
	return sortDeepestFirst(created), nil
}

// PruneEmptyDirs removes the directories of dirs that are empty. dirs must be
// ordered deepest first. Directories that are not empty are left alone.
func PruneEmptyDirs(dirs []string) int {
	removed := 0
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) != 0 {
			continue
		}
		if os.Remove(dir) == nil {
			removed++
		}
	}
	return removed
}

func missingAncestors(dir string) []string {
	var missing []string
	for d := filepath.Clean(dir); ; d = filepath.Dir(d) {
		if _, err := os.Lstat(d); err == nil || !os.IsNotExist(err) {
			break
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	return missing
}

func sortDeepestFirst(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		di := strings.Count(out[i], string(filepath.Separator))
		dj := strings.Count(out[j], string(filepath.Separator))
		if di != dj {
			return di > dj
		}
		return out[i] > out[j]
	})
	return out
}
