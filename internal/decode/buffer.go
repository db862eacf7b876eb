package decode

// BytesPerPixel is the fixed pixel size of a PixelBuffer regardless of the
// source bit depth.
const BytesPerPixel = 4

// PixelBuffer is a decoded image in X11 ZPixmap layout: rows top to bottom,
// each pixel stored as B, G, R, A. Alpha is always 255; the source alpha has
// already been folded into the colour channels.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

func newPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// Stride is the number of bytes between vertically adjacent pixels.
func (b *PixelBuffer) Stride() int {
	return b.Width * BytesPerPixel
}

// PixOffset returns the index of the first byte of pixel (x, y).
func (b *PixelBuffer) PixOffset(x, y int) int {
	return y*b.Stride() + x*BytesPerPixel
}

// BGRA returns the stored channels of pixel (x, y).
func (b *PixelBuffer) BGRA(x, y int) (blue, green, red, alpha uint8) {
	i := b.PixOffset(x, y)
	p := b.Pix[i : i+BytesPerPixel : i+BytesPerPixel]
	return p[0], p[1], p[2], p[3]
}
