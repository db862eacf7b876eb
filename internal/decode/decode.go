// Package decode loads image files into fixed-format BGRA pixel buffers
// ready to be uploaded to an X11 pixmap.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
)

// Decoder loads image files. The zero value is ready to use and logs nothing.
type Decoder struct {
	// Logger receives advisory warnings. Nil discards them.
	Logger *slog.Logger
}

// Decode loads path with a zero Decoder.
func Decode(path string) (*PixelBuffer, error) {
	var d Decoder
	return d.Decode(path)
}

// Decode reads path, identifies its format, validates class and bit depth,
// and returns the normalized buffer. The caller owns the returned buffer.
func (d *Decoder) Decode(path string) (*PixelBuffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: %w", ErrLoadFailed, err)}
	}

	format := sniff(data)
	if format == nil {
		format = byExtension(path)
	}
	if format == nil {
		return nil, &Error{Path: path, Err: ErrUnknownFormat}
	}
	if !format.Readable() {
		d.logger().Warn("couldn't read format", "path", path, "format", format.Name)
	}

	// Decoders reject or silently widen some depths, so the declared depth
	// is checked before anything is loaded.
	header := headerDepth(format, data)
	if header != 0 {
		if err := checkDepth(header); err != nil {
			return nil, &Error{Path: path, Err: err}
		}
	}

	img, err := load(format, data)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	depth, err := sourceDepth(img, header)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: empty image", ErrLoadFailed)}
	}

	return normalize(img, depth), nil
}

func load(format *Format, data []byte) (image.Image, error) {
	if !format.Readable() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRead, format.Name)
	}
	img, err := format.load(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, ErrUnsupportedType) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, format.Name, err)
	}
	return img, nil
}

func (d *Decoder) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.Logger
}
