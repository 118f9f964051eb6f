// Package sparse implements the tab separated sparse text encoding of dataset samples.
package sparse

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/teenjuna/idxsparse/codec"
	"github.com/teenjuna/idxsparse/idx"
)

// Codec writes one newline-terminated sparse line per sample.
type Codec struct {
	buf []byte
}

var _ codec.Codec[idx.Sample] = (*Codec)(nil)

func New() *Codec {
	return &Codec{
		buf: make([]byte, 0),
	}
}

func (c *Codec) Encode(batch iter.Seq[idx.Sample]) ([]byte, error) {
	c.buf = c.buf[:0]
	for sample := range batch {
		c.buf = idx.AppendSparse(c.buf, sample)
		c.buf = append(c.buf, '\n')
	}

	out := make([]byte, len(c.buf))
	copy(out, c.buf)

	return out, nil
}

// Decode accepts a missing newline after the last line and CRLF line endings.
func (c *Codec) Decode(data []byte, push func(idx.Sample)) error {
	for n := 1; len(data) > 0; n++ {
		line, rest, _ := bytes.Cut(data, []byte{'\n'})
		line = bytes.TrimSuffix(line, []byte{'\r'})

		sample, err := idx.ParseSparse(string(line))
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		push(sample)

		data = rest
	}

	return nil
}

func (c *Codec) Derive() codec.Codec[idx.Sample] {
	return New()
}
