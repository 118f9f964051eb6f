package idx

import "errors"

var (
	// ErrTruncatedHeader is returned when a buffer is shorter than its fixed header.
	ErrTruncatedHeader = errors.New("truncated header")
	// ErrBadMagic is returned when the magic number doesn't match the expected IDX variant.
	ErrBadMagic = errors.New("bad magic number")
	// ErrUnsupportedDimensions is returned when images are not 28x28.
	ErrUnsupportedDimensions = errors.New("unsupported image dimensions")
	// ErrCountMismatch is returned when the image count differs from the label count.
	ErrCountMismatch = errors.New("image and label counts differ")
	// ErrPayloadLengthMismatch is returned when the data after a header doesn't hold exactly the
	// declared records.
	ErrPayloadLengthMismatch = errors.New("payload length mismatch")
	// ErrSparseSyntax is returned by [ParseSparse] for malformed lines.
	ErrSparseSyntax = errors.New("invalid sparse line")
)
