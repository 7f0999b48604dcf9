package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"png2jpg/contracts"
	"png2jpg/utils"
)

// PNGSource decodes PNG files into RGB buffers.
type PNGSource struct {
	// ReadMetadata also collects pHYs and eXIf into PixelBuffer.Metadata.
	ReadMetadata bool
}

var _ contracts.PixelSource = PNGSource{}

func (s PNGSource) Decode(path string) (contracts.PixelBuffer, error) {
	data, err := readFile(path)
	if err != nil {
		return contracts.PixelBuffer{}, &DecodeError{Path: path, Err: err}
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return contracts.PixelBuffer{}, &DecodeError{Path: path, Err: err}
	}

	buf, err := ToRGB(img)
	if err != nil {
		return contracts.PixelBuffer{}, &DecodeError{Path: path, Err: err}
	}

	if s.ReadMetadata {
		buf.Metadata = readMetadata(data)
	}
	return buf, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// readMetadata keeps whatever parsed cleanly; broken chunks never fail the decode.
func readMetadata(data []byte) *contracts.Metadata {
	meta, _ := utils.ReadPNGMetadata(data)
	if len(meta.Exif) > 0 {
		raw, err := utils.ValidateExif(meta.Exif)
		if err != nil {
			meta.Exif = nil
		} else {
			meta.Exif = raw
			if meta.DPI <= 0 {
				if dpiX, _, ok := utils.ExifResolution(raw); ok {
					meta.DPI = dpiX
				}
			}
		}
	}
	if meta.Empty() {
		return nil
	}
	return &meta
}

// ToRGB flattens img into a tightly packed RGB buffer. Alpha is dropped
// without compositing, gray is replicated, 16-bit samples keep their high byte.
func ToRGB(img image.Image) (contracts.PixelBuffer, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return contracts.PixelBuffer{}, fmt.Errorf("empty image %dx%d", w, h)
	}
	out := make([]byte, 0, w*h*3)

	switch m := img.(type) {
	case *image.RGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 4 {
				out = append(out, row[i], row[i+1], row[i+2])
			}
		}
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 4 {
				out = append(out, row[i], row[i+1], row[i+2])
			}
		}
	case *image.RGBA64:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 8 {
				out = append(out, row[i], row[i+2], row[i+4])
			}
		}
	case *image.NRGBA64:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 8 {
				out = append(out, row[i], row[i+2], row[i+4])
			}
		}
	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]
			for _, g := range row {
				out = append(out, g, g, g)
			}
		}
	case *image.Gray16:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 2 {
				out = append(out, row[i], row[i], row[i])
			}
		}
	case *image.Paletted:
		src, err := opaquePaletted(m)
		if err != nil {
			return contracts.PixelBuffer{}, err
		}
		nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(nrgba, nrgba.Bounds(), src, b.Min, draw.Src)
		return ToRGB(nrgba)
	default:
		if !convertible(img.ColorModel()) {
			return contracts.PixelBuffer{}, fmt.Errorf("%w: %T", ErrUnsupportedColorModel, img)
		}
		nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
		return ToRGB(nrgba)
	}

	return contracts.PixelBuffer{Pix: out, Width: w, Height: h}, nil
}

// opaquePaletted returns m over a copy of its palette with every entry made
// opaque, so that drawing it keeps the stored color of transparent entries.
// Pixels share m's storage.
func opaquePaletted(m *image.Paletted) (*image.Paletted, error) {
	if len(m.Palette) == 0 {
		return nil, fmt.Errorf("%w: empty palette", ErrUnsupportedColorModel)
	}
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for _, idx := range m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)] {
			if int(idx) >= len(m.Palette) {
				return nil, fmt.Errorf("palette index %d out of range", idx)
			}
		}
	}

	pal := make(color.Palette, len(m.Palette))
	for i, c := range m.Palette {
		n, ok := c.(color.NRGBA)
		if !ok {
			n = color.NRGBAModel.Convert(c).(color.NRGBA)
		}
		n.A = 0xFF
		pal[i] = n
	}
	return &image.Paletted{Pix: m.Pix, Stride: m.Stride, Rect: m.Rect, Palette: pal}, nil
}

func convertible(m color.Model) bool {
	switch m {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model,
		color.GrayModel, color.Gray16Model, color.AlphaModel, color.Alpha16Model,
		color.CMYKModel, color.YCbCrModel, color.NYCbCrAModel:
		return true
	}
	return false
}
