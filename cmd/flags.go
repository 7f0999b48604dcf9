package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"png2jpg/contracts"
)

// version is shown by --version; override with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

// errExit asks the caller to stop with status 0 (help or version was printed).
var errExit = errors.New("exit")

type InputFlags = contracts.InputFlags

// parseFlags accepts flags before, between and after the two positionals.
// Arguments after "--" are always positionals.
func parseFlags(args []string, stdout io.Writer) (InputFlags, error) {
	cfg := contracts.DefaultInputFlags()
	fs := flag.NewFlagSet("png2jpg", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var showHelp, showVersion bool
	fs.Float64Var(&cfg.Quality, "quality", cfg.Quality, "JPEG quality (1-100)")
	fs.Float64Var(&cfg.Quality, "q", cfg.Quality, "Same as --quality")
	fs.IntVar(&cfg.Threads, "threads", 0, "Worker count (default: number of CPUs)")
	fs.IntVar(&cfg.Threads, "t", 0, "Same as --threads")
	fs.BoolVar(&cfg.IgnoreCase, "ignore-case", false, "Match the .png extension case-insensitively")
	fs.BoolVar(&cfg.KeepMetadata, "keep-metadata", false, "Carry PNG resolution and EXIF into the JPEG")
	fs.BoolVar(&cfg.KeepMetadata, "m", false, "Same as --keep-metadata")
	fs.StringVar(&cfg.Chroma, "chroma", cfg.Chroma, "Chroma subsampling: 444 | 422 | 420")
	fs.BoolVar(&cfg.NoProgress, "no-progress", false, "Do not display progress")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Debug logging")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Write logs to file instead of stderr")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&showVersion, "V", false, "Same as --version")
	fs.BoolVar(&showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&showHelp, "h", false, "Same as --help")

	var positional []string
	for len(args) > 0 {
		if err := fs.Parse(args); err != nil {
			return cfg, err
		}
		rest := fs.Args()
		// flag consumes "--" and stops; everything after it is positional
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			positional = append(positional, rest...)
			break
		}
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}

	if showHelp {
		printUsage(stdout)
		return cfg, errExit
	}
	if showVersion {
		fmt.Fprintln(stdout, "png2jpg "+version)
		return cfg, errExit
	}

	if len(positional) != 2 {
		return cfg, fmt.Errorf("need exactly <source> and <destination> (got %d arguments)", len(positional))
	}
	cfg.SourceRoot = positional[0]
	cfg.DestRoot = positional[1]
	return cfg, cfg.Validate()
}

func printUsage(w io.Writer) {
	const col1 = 26
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "png2jpg " + version + " - mirror a PNG tree as JPEG"},
		{"", ""},
		{"  png2jpg [OPTIONS] <source> <destination>", ""},
		{"", ""},
		{"  -q, --quality <value>", "JPEG quality 1-100 (default: 80)"},
		{"  -t, --threads <n>", "Worker count (default: number of CPUs)"},
		{"  --chroma <444|422|420>", "Chroma subsampling (default: 444)"},
		{"  -m, --keep-metadata", "Carry PNG resolution and EXIF into the JPEG"},
		{"  --ignore-case", "Also match .PNG, .Png, ..."},
		{"  --no-progress", "Do not display progress"},
		{"  -v, --verbose", "Debug logging"},
		{"  --log-file <path>", "Write logs to file instead of stderr"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		switch {
		case l.flags == "" && l.desc == "":
			fmt.Fprintln(w)
		case l.desc == "":
			fmt.Fprintln(w, l.flags)
		case l.flags == "":
			fmt.Fprintln(w, l.desc)
		default:
			padding := col1 - len(l.flags)
			if padding < 1 {
				padding = 1
			}
			fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
		}
	}
}
