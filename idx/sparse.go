package idx

import (
	"fmt"
	"strconv"
	"strings"
)

// AppendSparse appends the sparse line of s to dst and returns the extended buffer. The line is
// the label, the total pixel count and an index:value pair for every non-zero pixel, separated by
// tabs, without a trailing newline.
func AppendSparse(dst []byte, s Sample) []byte {
	dst = strconv.AppendUint(dst, uint64(s.Label), 10)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, int64(len(s.Pixels)), 10)
	for i, v := range s.Pixels {
		if v == 0 {
			continue
		}
		dst = append(dst, '\t')
		dst = strconv.AppendInt(dst, int64(i), 10)
		dst = append(dst, ':')
		dst = strconv.AppendUint(dst, uint64(v), 10)
	}
	return dst
}

// FormatSparse returns the sparse line of s.
func FormatSparse(s Sample) string {
	return string(AppendSparse(nil, s))
}

// ParseSparse parses a line produced by [FormatSparse] back into a sample with dense pixels.
// Indices missing from the line are zero.
func ParseSparse(line string) (Sample, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return Sample{}, fmt.Errorf("%w: want label and pixel count, got %q", ErrSparseSyntax, line)
	}

	label, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: label %q", ErrSparseSyntax, fields[0])
	}

	count, err := strconv.Atoi(fields[1])
	if err != nil || count != PixelCount {
		return Sample{}, fmt.Errorf(
			"%w: pixel count %q, want %d",
			ErrSparseSyntax, fields[1], PixelCount,
		)
	}

	pixels := make([]byte, count)
	prev := -1
	for _, field := range fields[2:] {
		is, vs, ok := strings.Cut(field, ":")
		if !ok {
			return Sample{}, fmt.Errorf("%w: pair %q has no ':'", ErrSparseSyntax, field)
		}

		i, err := strconv.Atoi(is)
		if err != nil || i <= prev || i >= count {
			return Sample{}, fmt.Errorf(
				"%w: index %q after %d, want ascending in [0, %d)",
				ErrSparseSyntax, is, prev, count,
			)
		}

		v, err := strconv.ParseUint(vs, 10, 8)
		if err != nil || v == 0 {
			return Sample{}, fmt.Errorf("%w: value %q, want 1-255", ErrSparseSyntax, vs)
		}

		pixels[i] = byte(v)
		prev = i
	}

	return Sample{Label: uint8(label), Pixels: pixels}, nil
}
