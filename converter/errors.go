package converter

import (
	"errors"
	"fmt"
)

var ErrUnsupportedColorModel = errors.New("unsupported color model")

// DecodeError covers unreadable, corrupt or unsupported input files.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError is a failure inside the JPEG encoder.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("encode: %v", e.Err) }

func (e *EncodeError) Unwrap() error { return e.Err }

// InvalidQualityError rejects a quality outside [MinQuality, MaxQuality].
type InvalidQualityError struct {
	Quality float64
}

func (e *InvalidQualityError) Error() string {
	return fmt.Sprintf("invalid quality %v (must be between %d and %d)", e.Quality, MinQuality, MaxQuality)
}

// IOError is a filesystem failure while writing the output.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }
