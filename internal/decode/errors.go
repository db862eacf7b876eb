package decode

import (
	"errors"
	"fmt"
)

// Errors returned by the decoder. They are always wrapped in an *Error that
// names the file.
var (
	// ErrUnknownFormat is returned when neither the file contents nor its
	// extension identify an image format.
	ErrUnknownFormat = errors.New("unknown image format")

	// ErrUnsupportedRead is returned when the format is recognised but no
	// reader is available for it.
	ErrUnsupportedRead = errors.New("format cannot be read")

	// ErrLoadFailed is returned when a readable format fails to decode.
	ErrLoadFailed = errors.New("image failed to load")

	// ErrUnsupportedType is returned for images that are not single-frame
	// RGB or greyscale bitmaps.
	ErrUnsupportedType = errors.New("unsupported image type")

	// ErrUnsupportedDepth is returned for bit depths other than 8, 24 and 32.
	ErrUnsupportedDepth = errors.New("only 32bit, 24bit, and 8bit images supported")
)

// Error describes a failure to decode a particular file.
type Error struct {
	Path string // File being decoded
	Err  error  // One of the package sentinels, possibly wrapping a cause
}

func (e *Error) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// depthError reports the offending depth while still matching
// ErrUnsupportedDepth.
func depthError(depth int) error {
	return fmt.Errorf("%w, got %d", ErrUnsupportedDepth, depth)
}
