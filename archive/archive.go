// Package archive reads compressed dataset files into memory.
package archive

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrIO is returned when the archive can't be opened or read.
	ErrIO = errors.New("read archive")
	// ErrFormat is returned when the archive is not a valid compressed stream.
	ErrFormat = errors.New("invalid compressed stream")
)

type method struct {
	name  string
	magic []byte
	open  func(r io.Reader) (io.ReadCloser, error)
}

var methods = []method{
	{
		name:  "gzip",
		magic: []byte{0x1f, 0x8b},
		open: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
	},
	{
		name:  "zstd",
		magic: []byte{0x28, 0xb5, 0x2f, 0xfd},
		open: func(r io.Reader) (io.ReadCloser, error) {
			d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
			if err != nil {
				return nil, err
			}
			return d.IOReadCloser(), nil
		},
	},
}

// Decompress reads the whole file at path and returns its decompressed contents. The method is
// picked from the leading magic bytes: gzip (concatenated members are joined) or zstd.
func Decompress(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	data, err := DecompressReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return data, nil
}

// DecompressReader is [Decompress] over an already open stream.
func DecompressReader(r io.Reader) ([]byte, error) {
	src := &sourceReader{r: r}
	br := bufio.NewReader(src)

	magic, err := br.Peek(4)
	if src.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, src.err)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	m, ok := detect(magic)
	if !ok {
		return nil, fmt.Errorf("%w: unknown magic % x", ErrFormat, magic)
	}

	zr, err := m.open(br)
	if err != nil {
		if src.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, src.err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrFormat, m.name, err)
	}
	defer zr.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(zr); err != nil {
		if src.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, src.err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrFormat, m.name, err)
	}

	return out.Bytes(), nil
}

// Digest returns the hex SHA-256 of the file at path, as stored, without decompressing it.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func detect(magic []byte) (method, bool) {
	for _, m := range methods {
		if bytes.HasPrefix(magic, m.magic) {
			return m, true
		}
	}
	return method{}, false
}

// sourceReader remembers the last read error of the underlying stream, so that failures of the
// file itself are told apart from failures of the decompressor.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}
