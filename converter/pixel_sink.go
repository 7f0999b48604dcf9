package converter

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/gen2brain/jpegli"

	"png2jpg/contracts"
	"png2jpg/utils"
)

const (
	MinQuality     = 1
	MaxQuality     = 100
	DefaultQuality = 80
)

// JPEGSink encodes RGB buffers with jpegli.
type JPEGSink struct {
	Subsampling image.YCbCrSubsampleRatio
	// KeepMetadata writes PixelBuffer.Metadata into the output when present.
	KeepMetadata bool
}

var _ contracts.PixelSink = JPEGSink{}

// ParseChroma maps the CLI chroma value to a subsampling ratio.
func ParseChroma(s string) (image.YCbCrSubsampleRatio, error) {
	switch s {
	case "", "444":
		return image.YCbCrSubsampleRatio444, nil
	case "422":
		return image.YCbCrSubsampleRatio422, nil
	case "420":
		return image.YCbCrSubsampleRatio420, nil
	}
	return 0, fmt.Errorf("invalid chroma subsampling %q", s)
}

// ValidateQuality rejects values the encoder cannot take. It never clamps.
func ValidateQuality(quality float64) error {
	if math.IsNaN(quality) || quality < MinQuality || quality > MaxQuality {
		return &InvalidQualityError{Quality: quality}
	}
	return nil
}

// Encode writes buf to outputPath as JPEG. The output appears atomically:
// either the complete file is renamed into place or nothing is left behind.
func (s JPEGSink) Encode(buf contracts.PixelBuffer, quality float64, outputPath string) error {
	if err := ValidateQuality(quality); err != nil {
		return err
	}
	if !buf.Valid() {
		return &EncodeError{Err: fmt.Errorf("pixel buffer of %d bytes does not match %dx%d RGB", len(buf.Pix), buf.Width, buf.Height)}
	}

	var out bytes.Buffer
	err := jpegli.Encode(&out, rgbImage(buf), &jpegli.EncodingOptions{
		Quality:           int(math.Round(quality)),
		ChromaSubsampling: s.Subsampling,
	})
	if err != nil {
		return &EncodeError{Err: err}
	}

	data := out.Bytes()
	if s.KeepMetadata && !buf.Metadata.Empty() {
		data, err = utils.EmbedMetadata(data, buf.Metadata)
		if err != nil {
			return &EncodeError{Err: fmt.Errorf("embed metadata: %w", err)}
		}
	}

	if err := writeFileAtomic(outputPath, data); err != nil {
		return &IOError{Path: outputPath, Err: err}
	}
	return nil
}

// rgbImage expands the packed RGB buffer into an opaque RGBA image.
func rgbImage(buf contracts.PixelBuffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	for i, j := 0, 0; i < len(buf.Pix); i, j = i+3, j+4 {
		img.Pix[j] = buf.Pix[i]
		img.Pix[j+1] = buf.Pix[i+1]
		img.Pix[j+2] = buf.Pix[i+2]
		img.Pix[j+3] = 0xFF
	}
	return img
}

// writeFileAtomic writes data next to path under a hidden temporary name,
// syncs it and renames it onto path. The temporary file never survives.
func writeFileAtomic(path string, data []byte) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	return nil
}

// IsInvalidQuality reports whether err rejects the quality setting.
func IsInvalidQuality(err error) bool {
	var e *InvalidQualityError
	return errors.As(err, &e)
}
