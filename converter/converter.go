package converter

import (
	"png2jpg/contracts"
)

// FileConverter runs one decode followed by one encode.
// It never creates directories and never checks whether the output exists.
type FileConverter struct {
	Source contracts.PixelSource
	Sink   contracts.PixelSink
}

var _ contracts.Converter = (*FileConverter)(nil)

// New builds the PNG to JPEG converter configured by flags.
func New(flags contracts.InputFlags) (*FileConverter, error) {
	ratio, err := ParseChroma(flags.Chroma)
	if err != nil {
		return nil, err
	}
	return &FileConverter{
		Source: PNGSource{ReadMetadata: flags.KeepMetadata},
		Sink:   JPEGSink{Subsampling: ratio, KeepMetadata: flags.KeepMetadata},
	}, nil
}

func (c *FileConverter) Convert(inputPath string, outputPath string, quality float64) contracts.Outcome {
	buf, err := c.Source.Decode(inputPath)
	if err != nil {
		return contracts.Failed(err)
	}
	if err := c.Sink.Encode(buf, quality, outputPath); err != nil {
		return contracts.Failed(err)
	}
	return contracts.Succeeded()
}
