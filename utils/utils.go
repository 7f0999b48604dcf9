package utils

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"

	"png2jpg/contracts"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// ErrNoExif is returned when an EXIF payload holds no readable IFD.
var ErrNoExif = errors.New("no EXIF data")

// ReadPNGMetadata walks the chunks of a PNG file and collects the pHYs
// resolution and the eXIf payload. Chunks after IDAT are read too, since eXIf
// may legally follow the image data.
func ReadPNGMetadata(data []byte) (contracts.Metadata, error) {
	var meta contracts.Metadata
	if !bytes.HasPrefix(data, pngSignature) {
		return meta, errors.New("not a PNG file")
	}
	buf := bytes.NewReader(data[len(pngSignature):])

	for {
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			break
		}

		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(buf, chunkType); err != nil {
			break
		}
		if int64(length) > int64(buf.Len()) {
			return meta, fmt.Errorf("chunk %q truncated", chunkType)
		}

		switch string(chunkType) {
		case "pHYs":
			var pxPerUnitX, pxPerUnitY uint32
			var unit byte
			if err := binary.Read(buf, binary.BigEndian, &pxPerUnitX); err != nil {
				return meta, err
			}
			if err := binary.Read(buf, binary.BigEndian, &pxPerUnitY); err != nil {
				return meta, err
			}
			if err := binary.Read(buf, binary.BigEndian, &unit); err != nil {
				return meta, err
			}
			if unit == 1 {
				meta.DPI = float64(pxPerUnitX) * 0.0254
			}
			if _, err := buf.Seek(int64(length)-9+4, io.SeekCurrent); err != nil {
				return meta, err
			}
			continue
		case "eXIf":
			payload := make([]byte, length)
			if _, err := io.ReadFull(buf, payload); err != nil {
				return meta, err
			}
			meta.Exif = payload
			if _, err := buf.Seek(4, io.SeekCurrent); err != nil {
				return meta, err
			}
			continue
		case "IEND":
			return meta, nil
		}

		// skip chunk data + CRC
		if _, err := buf.Seek(int64(length)+4, io.SeekCurrent); err != nil {
			break
		}
	}
	return meta, nil
}

func collectExif(rawExif []byte) (index *exif.IfdIndex, err error) {
	// the exif parser panics on some malformed IFD chains
	defer func() {
		if state := recover(); state != nil {
			index, err = nil, fmt.Errorf("EXIF parse panic: %v", state)
		}
	}()

	im := exifcommon.NewIfdMapping()
	ti := exif.NewTagIndex()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return nil, err
	}

	_, collected, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return nil, err
	}
	if collected.RootIfd == nil {
		return nil, ErrNoExif
	}
	return &collected, nil
}

// ValidateExif locates the TIFF header in data and checks that its IFDs parse.
// It returns the payload starting at the TIFF header.
func ValidateExif(data []byte) ([]byte, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return nil, fmt.Errorf("EXIF not found: %w", err)
	}
	if _, err := collectExif(rawExif); err != nil {
		return nil, fmt.Errorf("invalid EXIF: %w", err)
	}
	return rawExif, nil
}

// ExifResolution reads XResolution/YResolution from the root IFD, converted to
// dots per inch. ok is false when the payload carries no resolution.
func ExifResolution(rawExif []byte) (dpiX, dpiY float64, ok bool) {
	index, err := collectExif(rawExif)
	if err != nil {
		return 0, 0, false
	}

	if tag, err := index.RootIfd.FindTagWithName("XResolution"); err == nil {
		if val, err := tag[0].Value(); err == nil {
			if rats, isRat := val.([]exifcommon.Rational); isRat && len(rats) > 0 && rats[0].Denominator != 0 {
				dpiX = float64(rats[0].Numerator) / float64(rats[0].Denominator)
			}
		}
	}

	if tag, err := index.RootIfd.FindTagWithName("YResolution"); err == nil {
		if val, err := tag[0].Value(); err == nil {
			if rats, isRat := val.([]exifcommon.Rational); isRat && len(rats) > 0 && rats[0].Denominator != 0 {
				dpiY = float64(rats[0].Numerator) / float64(rats[0].Denominator)
			}
		}
	}
	if dpiX <= 0 || dpiY <= 0 {
		return 0, 0, false
	}

	if tag, err := index.RootIfd.FindTagWithName("ResolutionUnit"); err == nil {
		if val, err := tag[0].Value(); err == nil {
			if u, isShort := val.([]uint16); isShort && len(u) > 0 && u[0] == 3 {
				dpiX *= 2.54
				dpiY *= 2.54
			}
		}
	}

	return dpiX, dpiY, true
}
