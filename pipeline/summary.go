package pipeline

import (
	"fmt"
	"io"
	"time"
)

// Summary is the result of one run.
type Summary struct {
	Discovered int
	Succeeded  int
	Skipped    int
	Failed     int
	Failures   []Failure
	Elapsed    time.Duration

	// Sizes of the files converted in this run; skipped files are not counted.
	InputBytes  int64
	OutputBytes int64
}

// Processed is the number of files that reached a terminal state.
func (s Summary) Processed() int { return s.Succeeded + s.Skipped + s.Failed }

// Report writes one "<input-path>: <reason>" line per failure to errW and the
// summary line to w.
func Report(w, errW io.Writer, s Summary) {
	for _, f := range s.Failures {
		fmt.Fprintf(errW, "%s: %v\n", f.Path, f.Err)
	}
	fmt.Fprintf(w, "Done: %d succeeded, %d skipped, %d failed (%d files) in %s\n",
		s.Succeeded, s.Skipped, s.Failed, s.Discovered, s.Elapsed.Round(time.Millisecond))
	if s.Succeeded > 0 && s.InputBytes > 0 {
		fmt.Fprintf(w, "Size: %s -> %s (%d%% of original)\n",
			formatBytes(s.InputBytes), formatBytes(s.OutputBytes), s.OutputBytes*100/s.InputBytes)
	}
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 4; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTP"[exp])
}
