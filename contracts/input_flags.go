package contracts

import (
	"errors"
	"fmt"
)

type InputFlags struct {
	SourceRoot   string
	DestRoot     string
	LogFile      string
	Chroma       string
	Quality      float64
	Threads      int
	IgnoreCase   bool
	KeepMetadata bool
	NoProgress   bool
	Verbose      bool
}

// DefaultInputFlags mirrors the CLI defaults.
func DefaultInputFlags() InputFlags {
	return InputFlags{
		Quality: 80,
		Chroma:  "444",
	}
}

func (f InputFlags) Validate() error {
	if f.SourceRoot == "" || f.DestRoot == "" {
		return errors.New("source and destination directories required")
	}
	if f.Threads < 0 {
		return fmt.Errorf("threads must be >= 0 (got %d)", f.Threads)
	}
	switch f.Chroma {
	case "444", "422", "420":
	default:
		return fmt.Errorf("invalid chroma subsampling %q (use 444, 422 or 420)", f.Chroma)
	}
	return nil
}
