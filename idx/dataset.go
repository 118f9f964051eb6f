// Package idx decodes paired MNIST label and image buffers in the IDX format and encodes their
// samples as sparse text lines.
package idx

import (
	"fmt"
	"iter"
)

// Dataset is a validated pair of label and image buffers. Both slices alias the buffers passed
// to [Decode] and must not be modified.
type Dataset struct {
	Labels []byte
	Pixels []byte
	Rows   int
	Cols   int
}

// Sample is one labelled image. Pixels holds Rows*Cols intensities in row-major order.
type Sample struct {
	Label  uint8  `json:"label"`
	Pixels []byte `json:"pixels"`
}

// NonZero returns the number of non-zero pixels, which is the number of index:value pairs in
// the sample's sparse line.
func (s Sample) NonZero() int {
	n := 0
	for _, v := range s.Pixels {
		if v != 0 {
			n++
		}
	}
	return n
}

// Decode validates the decompressed labels and images buffers and returns a dataset over them.
//
// Checks run in a fixed order and the first failing one is returned:
//  1. labels buffer holds a full header ([ErrTruncatedHeader]);
//  2. labels magic is 00 00 08 01 ([ErrBadMagic]);
//  3. images buffer holds a full header ([ErrTruncatedHeader]);
//  4. images magic is 00 00 08 03 ([ErrBadMagic]);
//  5. images are 28x28 ([ErrUnsupportedDimensions]);
//  6. image and label counts are equal ([ErrCountMismatch]);
//  7. image payload is exactly count*rows*cols bytes ([ErrPayloadLengthMismatch]);
//  8. labels payload holds at least count bytes ([ErrPayloadLengthMismatch]).
//
// Bytes after the declared labels are ignored. Label values are not range checked.
func Decode(labels, images []byte) (*Dataset, error) {
	lh, err := ParseLabelsHeader(labels)
	if err != nil {
		return nil, err
	}

	ih, err := ParseImagesHeader(images)
	if err != nil {
		return nil, err
	}

	if ih.Rows != Rows || ih.Cols != Cols {
		return nil, fmt.Errorf(
			"%w: images are %dx%d, want %dx%d",
			ErrUnsupportedDimensions, ih.Rows, ih.Cols, Rows, Cols,
		)
	}

	if ih.Count != lh.Count {
		return nil, fmt.Errorf(
			"%w: %d images, %d labels",
			ErrCountMismatch, ih.Count, lh.Count,
		)
	}

	payload := images[ImagesHeaderSize:]
	want := uint64(ih.Count) * uint64(ih.Rows) * uint64(ih.Cols)
	if uint64(len(payload)) != want {
		return nil, fmt.Errorf(
			"%w: images payload is %d bytes, want %d",
			ErrPayloadLengthMismatch, len(payload), want,
		)
	}

	if uint64(len(labels)-LabelsHeaderSize) < uint64(lh.Count) {
		return nil, fmt.Errorf(
			"%w: labels payload is %d bytes, want %d",
			ErrPayloadLengthMismatch, len(labels)-LabelsHeaderSize, lh.Count,
		)
	}

	end := LabelsHeaderSize + lh.Count
	dataset := Dataset{
		Labels: labels[LabelsHeaderSize:end:end],
		Pixels: payload[:len(payload):len(payload)],
		Rows:   ih.Rows,
		Cols:   ih.Cols,
	}

	return &dataset, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Sample returns the i-th sample. It panics if i is out of range.
func (d *Dataset) Sample(i int) Sample {
	size := d.Rows * d.Cols
	offset := i * size
	return Sample{
		Label:  d.Labels[i],
		Pixels: d.Pixels[offset : offset+size : offset+size],
	}
}

// Samples returns all samples in order.
func (d *Dataset) Samples() iter.Seq[Sample] {
	return d.Range(0, d.Len())
}

// Range returns the samples in [from, to) in order.
func (d *Dataset) Range(from, to int) iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		for i := from; i < to; i++ {
			if !yield(d.Sample(i)) {
				return
			}
		}
	}
}

// Lines returns the sparse line of every sample in order. Each range over the sequence starts
// again from the first sample.
func (d *Dataset) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		var buf []byte
		for s := range d.Samples() {
			buf = AppendSparse(buf[:0], s)
			if !yield(string(buf)) {
				return
			}
		}
	}
}
