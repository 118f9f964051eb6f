// Package idxtest builds IDX buffers and compressed archives for tests.
package idxtest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/teenjuna/idxsparse/idx"
)

// Labels returns an IDX1 buffer declaring len(labels) records.
func Labels(labels ...byte) []byte {
	b := make([]byte, 0, idx.LabelsHeaderSize+len(labels))
	b = append(b, idx.LabelsMagic[:]...)
	b = binary.BigEndian.AppendUint32(b, uint32(len(labels)))
	return append(b, labels...)
}

// Images returns an IDX3 buffer with the given header fields followed by pixels as is.
func Images(count, rows, cols int, pixels []byte) []byte {
	b := make([]byte, 0, idx.ImagesHeaderSize+len(pixels))
	b = append(b, idx.ImagesMagic[:]...)
	b = binary.BigEndian.AppendUint32(b, uint32(count))
	b = binary.BigEndian.AppendUint32(b, uint32(rows))
	b = binary.BigEndian.AppendUint32(b, uint32(cols))
	return append(b, pixels...)
}

// Pair is a matching labels/images pair of 28x28 images.
type Pair struct {
	Labels []byte
	Images []byte
	// Pixels holds every image back to back, as in the images payload.
	Pixels []byte
}

// Scenario returns the two-sample pair whose sparse lines are "7\t784\t5:200" and
// "3\t784\t0:1".
func Scenario() Pair {
	pixels := make([]byte, 2*idx.PixelCount)
	pixels[5] = 200
	pixels[idx.PixelCount] = 1
	return Pair{
		Labels: Labels(7, 3),
		Images: Images(2, idx.Rows, idx.Cols, pixels),
		Pixels: pixels,
	}
}

// Random returns a pair of n samples with deterministic pseudo-random sparse images.
func Random(n int) Pair {
	labels := make([]byte, n)
	pixels := make([]byte, n*idx.PixelCount)
	seed := uint32(2463534242)
	next := func() uint32 {
		seed ^= seed << 13
		seed ^= seed >> 17
		seed ^= seed << 5
		return seed
	}
	for i := range labels {
		labels[i] = byte(next() % 10)
	}
	for i := range pixels {
		if next()%5 == 0 {
			pixels[i] = byte(next())
		}
	}
	return Pair{
		Labels: Labels(labels...),
		Images: Images(n, idx.Rows, idx.Cols, pixels),
		Pixels: pixels,
	}
}

// WriteGzip writes data gzip-compressed to name inside dir and returns the path.
func WriteGzip(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	w := gzip.NewWriter(f)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close gzip %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
	return path
}

// WriteZstd writes data zstd-compressed to name inside dir and returns the path.
func WriteZstd(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	defer enc.Close()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, enc.EncodeAll(data, nil), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
