package decode

import (
	"fmt"
	"image"
	"image/color"
)

// sampleFunc returns straight-alpha channels of the pixel at (x, y).
type sampleFunc func(x, y int) (blue, green, red, alpha uint8)

// checkDepth accepts the bits-per-pixel values the buffer can be built from.
func checkDepth(depth int) error {
	switch depth {
	case 8, 24, 32:
		return nil
	}
	return depthError(depth)
}

// sourceDepth classifies img and returns its bits per pixel. A non-zero
// header value, taken from the file itself, overrides what the decoded pixel
// model suggests since decoders widen packed and 16 bit samples.
func sourceDepth(img image.Image, header int) (int, error) {
	var depth int
	switch img.(type) {
	case *image.Gray, *image.Paletted:
		depth = 8
	case *image.YCbCr:
		depth = 24
	case *image.RGBA, *image.NRGBA, *image.NYCbCrA:
		depth = 32
	case *image.Gray16:
		depth = 16
	case *image.RGBA64, *image.NRGBA64:
		depth = 64
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedType, img)
	}
	if header != 0 {
		depth = header
	}
	if err := checkDepth(depth); err != nil {
		return 0, err
	}
	return depth, nil
}

// rawSampler returns the stored 8-bit value of a one-byte-per-pixel image.
// Indexed pixels yield their palette index, not the palette colour.
func rawSampler(img image.Image) func(x, y int) uint8 {
	switch m := img.(type) {
	case *image.Gray:
		return func(x, y int) uint8 { return m.Pix[m.PixOffset(x, y)] }
	case *image.Paletted:
		return func(x, y int) uint8 { return m.Pix[m.PixOffset(x, y)] }
	}
	return func(x, y int) uint8 {
		return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
	}
}

func sampler(img image.Image) sampleFunc {
	switch m := img.(type) {
	case *image.RGBA:
		// Already premultiplied; folding alpha again would darken it twice.
		return func(x, y int) (uint8, uint8, uint8, uint8) {
			i := m.PixOffset(x, y)
			return m.Pix[i+2], m.Pix[i+1], m.Pix[i], 0xff
		}
	case *image.NRGBA:
		return func(x, y int) (uint8, uint8, uint8, uint8) {
			i := m.PixOffset(x, y)
			return m.Pix[i+2], m.Pix[i+1], m.Pix[i], m.Pix[i+3]
		}
	case *image.YCbCr:
		return func(x, y int) (uint8, uint8, uint8, uint8) {
			yi, ci := m.YOffset(x, y), m.COffset(x, y)
			r, g, b := color.YCbCrToRGB(m.Y[yi], m.Cb[ci], m.Cr[ci])
			return b, g, r, 0xff
		}
	case *image.NYCbCrA:
		return func(x, y int) (uint8, uint8, uint8, uint8) {
			yi, ci := m.YOffset(x, y), m.COffset(x, y)
			r, g, b := color.YCbCrToRGB(m.Y[yi], m.Cb[ci], m.Cr[ci])
			return b, g, r, m.A[m.AOffset(x, y)]
		}
	}
	return func(x, y int) (uint8, uint8, uint8, uint8) {
		c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
		return c.B, c.G, c.R, c.A
	}
}

// premultiply scales a colour channel by alpha with truncating division.
func premultiply(c, alpha uint8) uint8 {
	return uint8(int(c) * int(alpha) / 255)
}

// normalize converts img into a PixelBuffer. 8-bit pixels copy their value
// into all three channels; wider pixels are premultiplied by their alpha.
// Output alpha is always opaque.
//
// Rows are copied top-down. Go decoders already return the top row first,
// which is where a bottom-up loader ends up after flipping its scanlines.
func normalize(img image.Image, depth int) *PixelBuffer {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	buf := newPixelBuffer(width, height)

	if depth == 8 {
		raw := rawSampler(img)
		for y := 0; y < height; y++ {
			row := buf.Pix[y*buf.Stride() : (y+1)*buf.Stride()]
			for x := 0; x < width; x++ {
				v := raw(bounds.Min.X+x, bounds.Min.Y+y)
				p := row[x*BytesPerPixel : (x+1)*BytesPerPixel : (x+1)*BytesPerPixel]
				p[0], p[1], p[2], p[3] = v, v, v, 0xff
			}
		}
		return buf
	}

	sample := sampler(img)
	for y := 0; y < height; y++ {
		row := buf.Pix[y*buf.Stride() : (y+1)*buf.Stride()]
		for x := 0; x < width; x++ {
			b, g, r, a := sample(bounds.Min.X+x, bounds.Min.Y+y)
			p := row[x*BytesPerPixel : (x+1)*BytesPerPixel : (x+1)*BytesPerPixel]
			p[0] = premultiply(b, a)
			p[1] = premultiply(g, a)
			p[2] = premultiply(r, a)
			p[3] = 0xff
		}
	}
	return buf
}
