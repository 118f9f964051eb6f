package idx

import (
	"encoding/binary"
	"fmt"
)

const (
	// LabelsHeaderSize is the size of the IDX1 labels header: magic and count.
	LabelsHeaderSize = 8
	// ImagesHeaderSize is the size of the IDX3 images header: magic, count, rows and cols.
	ImagesHeaderSize = 16

	Rows       = 28
	Cols       = 28
	PixelCount = Rows * Cols
)

var (
	LabelsMagic = [4]byte{0x00, 0x00, 0x08, 0x01}
	ImagesMagic = [4]byte{0x00, 0x00, 0x08, 0x03}
)

// Header is the fixed part of an IDX stream. Rows and Cols are zero for labels.
type Header struct {
	Magic [4]byte
	Count int
	Rows  int
	Cols  int
}

func (h Header) String() string {
	if h.Magic == LabelsMagic {
		return fmt.Sprintf("idx1 labels: %d", h.Count)
	}
	return fmt.Sprintf("idx3 images: %d of %dx%d", h.Count, h.Rows, h.Cols)
}

// ParseLabelsHeader reads the header of a decompressed labels stream.
func ParseLabelsHeader(b []byte) (Header, error) {
	if len(b) < LabelsHeaderSize {
		return Header{}, fmt.Errorf(
			"%w: labels buffer is %d bytes, need %d",
			ErrTruncatedHeader, len(b), LabelsHeaderSize,
		)
	}

	var h Header
	copy(h.Magic[:], b[:4])
	if h.Magic != LabelsMagic {
		return Header{}, fmt.Errorf(
			"%w: labels magic is % x, want % x",
			ErrBadMagic, h.Magic[:], LabelsMagic[:],
		)
	}
	h.Count = int(binary.BigEndian.Uint32(b[4:8]))

	return h, nil
}

// ParseImagesHeader reads the header of a decompressed images stream. Dimensions are returned
// as declared; [Decode] is what rejects anything but 28x28.
func ParseImagesHeader(b []byte) (Header, error) {
	if len(b) < ImagesHeaderSize {
		return Header{}, fmt.Errorf(
			"%w: images buffer is %d bytes, need %d",
			ErrTruncatedHeader, len(b), ImagesHeaderSize,
		)
	}

	var h Header
	copy(h.Magic[:], b[:4])
	if h.Magic != ImagesMagic {
		return Header{}, fmt.Errorf(
			"%w: images magic is % x, want % x",
			ErrBadMagic, h.Magic[:], ImagesMagic[:],
		)
	}
	h.Count = int(binary.BigEndian.Uint32(b[4:8]))
	h.Rows = int(binary.BigEndian.Uint32(b[8:12]))
	h.Cols = int(binary.BigEndian.Uint32(b[12:16]))

	return h, nil
}

// ParseHeader picks the labels or images layout from the type byte of the magic number.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < 4 {
		return Header{}, fmt.Errorf("%w: buffer is %d bytes, need 4", ErrTruncatedHeader, len(b))
	}
	switch b[3] {
	case LabelsMagic[3]:
		return ParseLabelsHeader(b)
	case ImagesMagic[3]:
		return ParseImagesHeader(b)
	default:
		return Header{}, fmt.Errorf("%w: % x is neither idx1 nor idx3", ErrBadMagic, b[:4])
	}
}
