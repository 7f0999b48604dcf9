package contracts

// PixelSource decodes one input file into an RGB pixel buffer.
type PixelSource interface {
	Decode(path string) (PixelBuffer, error)
}

// PixelSink encodes an RGB pixel buffer and writes it to outputPath.
type PixelSink interface {
	Encode(buf PixelBuffer, quality float64, outputPath string) error
}

// Converter turns one input file into one output file.
type Converter interface {
	Convert(inputPath string, outputPath string, quality float64) Outcome
}

type Status int

const (
	StatusSkipped Status = iota + 1
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the terminal state of one file. Err is set only for StatusFailed.
type Outcome struct {
	Status Status
	Err    error
}

func Succeeded() Outcome { return Outcome{Status: StatusSucceeded} }

func Skipped() Outcome { return Outcome{Status: StatusSkipped} }

func Failed(err error) Outcome { return Outcome{Status: StatusFailed, Err: err} }
