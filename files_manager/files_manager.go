package files_manager

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const InputExtension = ".png"

type WalkOptions struct {
	// Extension to match, with the leading dot. Defaults to InputExtension.
	Extension  string
	IgnoreCase bool
	// Workers reading directories concurrently. Defaults to runtime.NumCPU().
	Workers int
	Logger  *zap.Logger
}

type WalkResult struct {
	Files []string
	// Warnings combines the errors of subdirectories that were skipped.
	Warnings error
}

// ListFiles returns every matching regular file under root, in no particular order.
func ListFiles(root string, opts WalkOptions) ([]string, error) {
	res, err := ListFilesDetailed(root, opts)
	if err != nil {
		return nil, err
	}
	return res.Files, nil
}

// ListFilesDetailed is ListFiles plus the non-fatal warnings collected on the way.
// Symlinks are neither followed nor returned.
func ListFilesDetailed(root string, opts WalkOptions) (WalkResult, error) {
	if opts.Extension == "" {
		opts.Extension = InputExtension
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	info, err := os.Stat(root)
	if err != nil {
		return WalkResult{}, &EnumerationError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return WalkResult{}, &EnumerationError{Root: root, Err: errors.New("not a directory")}
	}
	// The root itself must be readable; only deeper failures are tolerated.
	rootEntries, err := os.ReadDir(root)
	if err != nil {
		return WalkResult{}, &EnumerationError{Root: root, Err: err}
	}

	w := &walker{opts: opts}
	w.cond = sync.NewCond(&w.mu)
	w.pending = 1
	w.handle(root, rootEntries)

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.work()
		}()
	}
	wg.Wait()

	return WalkResult{Files: w.files, Warnings: w.warnings}, nil
}

// walker shares a queue of directories between a fixed set of goroutines.
// pending counts directories queued or being read; the walk ends when it drops to zero.
type walker struct {
	opts WalkOptions

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []string
	pending  int
	files    []string
	warnings error
}

func (w *walker) work() {
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && w.pending > 0 {
			w.cond.Wait()
		}
		if w.pending == 0 {
			w.mu.Unlock()
			return
		}
		dir := w.queue[len(w.queue)-1]
		w.queue = w.queue[:len(w.queue)-1]
		w.mu.Unlock()

		entries, err := os.ReadDir(dir)
		if err != nil {
			w.warn(dir, err)
			w.handle(dir, nil)
			continue
		}
		w.handle(dir, entries)
	}
}

// handle records the files of dir, queues its subdirectories and marks dir as done.
func (w *walker) handle(dir string, entries []fs.DirEntry) {
	var files, subDirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			subDirs = append(subDirs, path)
		case entry.Type().IsRegular() && w.matches(entry.Name()):
			files = append(files, path)
		}
	}

	w.mu.Lock()
	w.files = append(w.files, files...)
	w.queue = append(w.queue, subDirs...)
	w.pending += len(subDirs) - 1
	w.mu.Unlock()
	w.cond.Broadcast()
}

func (w *walker) matches(name string) bool {
	ext := filepath.Ext(name)
	if w.opts.IgnoreCase {
		return strings.EqualFold(ext, w.opts.Extension)
	}
	return ext == w.opts.Extension
}

func (w *walker) warn(dir string, err error) {
	w.opts.Logger.Warn("skipping unreadable directory", zap.String("dir", dir), zap.Error(err))
	w.mu.Lock()
	w.warnings = multierr.Append(w.warnings, err)
	w.mu.Unlock()
}
