package pipeline

import (
	"sort"
	"sync"
)

// Failure pairs an input file with the reason it could not be converted.
type Failure struct {
	Path string
	Err  error
}

// ErrorLog collects failures from concurrent workers. The lock is held only for the append.
type ErrorLog struct {
	mu      sync.Mutex
	entries []Failure
}

func (l *ErrorLog) Append(path string, err error) {
	l.mu.Lock()
	l.entries = append(l.entries, Failure{Path: path, Err: err})
	l.mu.Unlock()
}

func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Drain empties the log and returns its entries sorted by path.
func (l *ErrorLog) Drain() []Failure {
	l.mu.Lock()
	out := l.entries
	l.entries = nil
	l.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
