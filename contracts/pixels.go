package contracts

// PixelBuffer holds decoded RGB pixels, three bytes per pixel, row major.
type PixelBuffer struct {
	Pix    []byte
	Width  int
	Height int

	// Metadata is filled only when the source was asked to read it.
	Metadata *Metadata
}

// Valid reports whether Pix matches Width*Height*3.
func (b PixelBuffer) Valid() bool {
	return b.Width > 0 && b.Height > 0 && len(b.Pix) == b.Width*b.Height*3
}

// Metadata carried from the PNG ancillary chunks to the JPEG output.
type Metadata struct {
	// DPI from the pHYs chunk, 0 when absent or unit-less.
	DPI float64
	// Exif is the raw TIFF-structured EXIF payload of the eXIf chunk.
	Exif []byte
}

func (m *Metadata) Empty() bool {
	return m == nil || (m.DPI <= 0 && len(m.Exif) == 0)
}
