// Package pipeline drives a batch run: discover the source tree, mirror its
// directories, convert every file on a fixed worker pool and summarize.
package pipeline

import (
	"errors"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"png2jpg/contracts"
	"png2jpg/files_manager"
	"png2jpg/logging"
	"png2jpg/progress"
)

// Observer receives run events. All calls come from the goroutine running Scheduler.Run.
type Observer interface {
	OnPhase(name string)
	OnConvertStart(counter *progress.Counter)
	OnConvertDone()
}

const (
	PhaseListing    = "Listing files..."
	PhaseCreateDirs = "Creating directories..."
	PhaseConverting = "Compressing images..."
)

type Scheduler struct {
	Flags     contracts.InputFlags
	Converter contracts.Converter
	Observer  Observer
	Logger    *zap.Logger
}

// runState is shared by the workers of one run.
type runState struct {
	errs      ErrorLog
	counter   *progress.Counter
	succeeded atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	inBytes   atomic.Int64
	outBytes  atomic.Int64
}

// Run converts the whole source tree. The only error it returns is a
// *files_manager.EnumerationError; per-file failures end up in Summary.Failures.
func (s *Scheduler) Run() (Summary, error) {
	start := time.Now()
	log := logging.OrNop(s.Logger)
	flags := s.Flags

	s.phase(PhaseListing)
	listing, err := files_manager.ListFilesDetailed(flags.SourceRoot, files_manager.WalkOptions{
		IgnoreCase: flags.IgnoreCase,
		Workers:    flags.Threads,
		Logger:     log,
	})
	if err != nil {
		return Summary{}, err
	}
	files := listing.Files
	log.Info("discovered files",
		zap.String("source", flags.SourceRoot),
		zap.Int("count", len(files)),
		zap.Int("skipped_dirs", len(multierr.Errors(listing.Warnings))))

	s.phase(PhaseCreateDirs)
	created := s.createDirs(files, log)

	workers := flags.Threads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	st := &runState{counter: progress.NewCounter(len(files))}
	s.phase(PhaseConverting)
	if s.Observer != nil {
		s.Observer.OnConvertStart(st.counter)
	}

	jobs := make(chan files_manager.Mapping)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				s.record(m.Source, s.process(m, log, st), st, log)
			}
		}()
	}
	for _, m := range files_manager.MapDestinations(files, flags.SourceRoot, flags.DestRoot) {
		jobs <- m
	}
	close(jobs)
	wg.Wait()

	if s.Observer != nil {
		s.Observer.OnConvertDone()
	}

	if n := files_manager.PruneEmptyDirs(created); n > 0 {
		log.Debug("removed empty directories", zap.Int("count", n))
	}

	summary := Summary{
		Discovered:  len(files),
		Succeeded:   int(st.succeeded.Load()),
		Skipped:     int(st.skipped.Load()),
		Failed:      int(st.failed.Load()),
		Failures:    st.errs.Drain(),
		Elapsed:     time.Since(start),
		InputBytes:  st.inBytes.Load(),
		OutputBytes: st.outBytes.Load(),
	}
	log.Info("run finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// createDirs materializes the destination tree and returns the directories it
// created, deepest first. Failures are logged; the affected files fail on write.
func (s *Scheduler) createDirs(files []string, log *zap.Logger) []string {
	if err := os.MkdirAll(s.Flags.DestRoot, 0o755); err != nil {
		log.Warn("cannot create destination root", zap.String("dir", s.Flags.DestRoot), zap.Error(err))
	}
	dirs, mapErrs := files_manager.DestinationDirs(files, s.Flags.SourceRoot, s.Flags.DestRoot)
	for _, err := range mapErrs {
		log.Warn("cannot map file", zap.Error(err))
	}
	created, err := files_manager.CreateDirs(dirs)
	if err != nil {
		log.Warn("cannot create destination directory", zap.Error(err))
	}
	return created
}

// process takes one file through Discovered -> {Skipped | Converting -> {Succeeded | Failed}}.
// Destinations are unique across the run, so removing dst never touches another file's output.
func (s *Scheduler) process(m files_manager.Mapping, log *zap.Logger, st *runState) contracts.Outcome {
	if m.Err != nil {
		return contracts.Failed(m.Err)
	}
	file, dst := m.Source, m.Dest

	if _, err := os.Lstat(dst); err == nil {
		log.Debug("skip (exists)", zap.String("file", file), zap.String("dest", dst))
		return contracts.Skipped()
	}

	outcome := s.Converter.Convert(file, dst, s.Flags.Quality)
	switch outcome.Status {
	case contracts.StatusFailed:
		if outcome.Err == nil {
			outcome.Err = errors.New("conversion failed")
		}
		_ = os.Remove(dst)
	case contracts.StatusSucceeded:
		if fi, err := os.Stat(file); err == nil {
			st.inBytes.Add(fi.Size())
		}
		if fi, err := os.Stat(dst); err == nil {
			st.outBytes.Add(fi.Size())
		}
	}
	return outcome
}

func (s *Scheduler) record(file string, outcome contracts.Outcome, st *runState, log *zap.Logger) {
	switch outcome.Status {
	case contracts.StatusSucceeded:
		st.succeeded.Add(1)
	case contracts.StatusSkipped:
		st.skipped.Add(1)
	default:
		if outcome.Err == nil {
			outcome.Err = errors.New("conversion failed")
		}
		st.failed.Add(1)
		st.errs.Append(file, outcome.Err)
		log.Debug("conversion failed", zap.String("file", file), zap.Error(outcome.Err))
	}
	st.counter.Inc()
}

func (s *Scheduler) phase(name string) {
	if s.Observer != nil {
		s.Observer.OnPhase(name)
	}
}
