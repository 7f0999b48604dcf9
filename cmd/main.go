package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"png2jpg/converter"
	"png2jpg/logging"
	"png2jpg/pipeline"
	"png2jpg/progress"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit status: 0 when the run completed (even with
// failed files), 1 when the source tree could not be listed, 2 on usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stdout)
	if errors.Is(err, errExit) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "[ERROR]: %v\n", err)
		fmt.Fprintln(stderr, "Run 'png2jpg --help' for usage.")
		return 2
	}

	logger, err := logging.New(logging.Options{Verbose: opts.Verbose, File: opts.LogFile})
	if err != nil {
		fmt.Fprintf(stderr, "[ERROR]: cannot set up logging: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	conv, err := converter.New(opts)
	if err != nil {
		fmt.Fprintf(stderr, "[ERROR]: %v\n", err)
		return 2
	}
	if err := converter.ValidateQuality(opts.Quality); err != nil {
		logger.Warn("every conversion will fail", zap.Error(err))
	}

	fmt.Fprintln(stdout, "source:", opts.SourceRoot)
	fmt.Fprintln(stdout, "destination:", opts.DestRoot)

	sched := pipeline.Scheduler{
		Flags:     opts,
		Converter: conv,
		Observer:  newConsoleObserver(stdout, !opts.NoProgress),
		Logger:    logger,
	}
	summary, err := sched.Run()
	if err != nil {
		fmt.Fprintf(stderr, "[ERROR]: %v\n", err)
		return 1
	}

	pipeline.Report(stdout, stderr, summary)
	return 0
}

// consoleObserver prints phase names and drives the progress bar.
type consoleObserver struct {
	w   io.Writer
	bar *progress.Bar
}

func newConsoleObserver(w io.Writer, showProgress bool) *consoleObserver {
	o := &consoleObserver{w: w}
	if showProgress {
		o.bar = progress.NewBar(w, 0)
	}
	return o
}

func (o *consoleObserver) OnPhase(name string) {
	fmt.Fprintln(o.w, name)
}

func (o *consoleObserver) OnConvertStart(counter *progress.Counter) {
	if o.bar != nil {
		o.bar.Start(counter)
	}
}

func (o *consoleObserver) OnConvertDone() {
	if o.bar != nil {
		o.bar.Stop()
	}
}
