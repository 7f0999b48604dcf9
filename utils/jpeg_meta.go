package utils

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"

	"png2jpg/contracts"
)

var (
	jfifIdentifier = []byte("JFIF\x00")
	exifIdentifier = []byte("Exif\x00\x00")
)

const maxSegmentPayload = 0xFFFF - 2

// ErrNotJPEG is returned when the encoded stream does not start with SOI.
var ErrNotJPEG = errors.New("not a JPEG stream")

// EmbedMetadata returns jpeg with the resolution written into the JFIF APP0
// header and the EXIF payload inserted as an APP1 segment right after it.
// A JFIF APP0 is added after SOI when the stream has none.
// The input slice is not modified.
func EmbedMetadata(jpeg []byte, meta *contracts.Metadata) ([]byte, error) {
	if len(jpeg) < 4 || jpeg[0] != 0xFF || jpeg[1] != 0xD8 {
		return nil, ErrNotJPEG
	}
	if meta.Empty() {
		return jpeg, nil
	}

	out := make([]byte, 0, len(jpeg)+len(meta.Exif)+16)
	out = append(out, jpeg[:2]...)
	rest := jpeg[2:]

	// APP0 JFIF: marker(2) length(2) "JFIF\0"(5) version(2) units(1) Xdensity(2) Ydensity(2)
	if len(rest) >= 16 && rest[0] == 0xFF && rest[1] == 0xE0 && bytes.Equal(rest[4:9], jfifIdentifier) {
		segLen := int(binary.BigEndian.Uint16(rest[2:4])) + 2
		if segLen > len(rest) {
			return nil, errors.New("truncated JFIF segment")
		}
		app0 := append([]byte(nil), rest[:segLen]...)
		if dpi := densityFromDPI(meta.DPI); dpi > 0 {
			app0[11] = 1
			binary.BigEndian.PutUint16(app0[12:14], dpi)
			binary.BigEndian.PutUint16(app0[14:16], dpi)
		}
		out = append(out, app0...)
		rest = rest[segLen:]
	} else if dpi := densityFromDPI(meta.DPI); dpi > 0 {
		out = appendJFIF(out, dpi)
	}

	if len(meta.Exif) > 0 {
		if len(meta.Exif)+len(exifIdentifier) > maxSegmentPayload {
			return nil, errors.New("EXIF payload too large for APP1")
		}
		out = append(out, 0xFF, 0xE1)
		out = binary.BigEndian.AppendUint16(out, uint16(len(exifIdentifier)+len(meta.Exif)+2))
		out = append(out, exifIdentifier...)
		out = append(out, meta.Exif...)
	}

	return append(out, rest...), nil
}

// appendJFIF appends a JFIF 1.02 APP0 in dots per inch without thumbnail.
func appendJFIF(out []byte, dpi uint16) []byte {
	out = append(out, 0xFF, 0xE0, 0x00, 0x10)
	out = append(out, jfifIdentifier...)
	out = append(out, 1, 2, 1)
	out = binary.BigEndian.AppendUint16(out, dpi)
	out = binary.BigEndian.AppendUint16(out, dpi)
	return append(out, 0, 0)
}

func densityFromDPI(dpi float64) uint16 {
	if dpi <= 0 || math.IsNaN(dpi) {
		return 0
	}
	rounded := math.Round(dpi)
	if rounded > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(rounded)
}
