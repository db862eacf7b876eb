package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

type loadFunc func(r io.Reader) (image.Image, error)

// Format describes an image file format the decoder can recognise.
type Format struct {
	Name       string
	Extensions []string

	// magic holds the leading byte signatures; '?' matches any byte.
	magic []string
	// load is nil for formats that are recognised but cannot be read.
	load loadFunc
}

// Readable reports whether the decoder can load images of this format.
func (f *Format) Readable() bool {
	return f.load != nil
}

var formats = []*Format{
	{Name: "png", Extensions: []string{".png"}, magic: []string{"\x89PNG\r\n\x1a\n"}, load: png.Decode},
	{Name: "jpeg", Extensions: []string{".jpg", ".jpeg", ".jpe", ".jfif"}, magic: []string{"\xff\xd8"}, load: jpeg.Decode},
	{Name: "gif", Extensions: []string{".gif"}, magic: []string{"GIF87a", "GIF89a"}, load: loadGIF},
	{Name: "bmp", Extensions: []string{".bmp", ".dib"}, magic: []string{"BM"}, load: bmp.Decode},
	{Name: "tiff", Extensions: []string{".tif", ".tiff"}, magic: []string{"II*\x00", "MM\x00*"}, load: tiff.Decode},
	{Name: "webp", Extensions: []string{".webp"}, magic: []string{"RIFF????WEBP"}, load: webp.Decode},

	{Name: "psd", Extensions: []string{".psd"}, magic: []string{"8BPS"}},
	{Name: "exr", Extensions: []string{".exr"}, magic: []string{"\x76\x2f\x31\x01"}},
	{Name: "hdr", Extensions: []string{".hdr"}, magic: []string{"#?RADIANCE", "#?RGBE"}},
	{Name: "qoi", Extensions: []string{".qoi"}, magic: []string{"qoif"}},
	{Name: "ico", Extensions: []string{".ico", ".cur"}, magic: []string{"\x00\x00\x01\x00"}},
	{Name: "tga", Extensions: []string{".tga", ".targa"}},
	{Name: "svg", Extensions: []string{".svg"}},
}

// sniff identifies a format from the leading bytes of data.
func sniff(data []byte) *Format {
	for _, f := range formats {
		for _, m := range f.magic {
			if matchMagic(m, data) {
				return f
			}
		}
	}
	return nil
}

func matchMagic(magic string, data []byte) bool {
	if len(data) < len(magic) {
		return false
	}
	for i := 0; i < len(magic); i++ {
		if magic[i] != '?' && magic[i] != data[i] {
			return false
		}
	}
	return true
}

// byExtension identifies a format from the file name alone.
func byExtension(path string) *Format {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil
	}
	for _, f := range formats {
		for _, e := range f.Extensions {
			if e == ext {
				return f
			}
		}
	}
	return nil
}

// loadGIF rejects animations; only the first frame of a still GIF is shown.
func loadGIF(r io.Reader) (image.Image, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, err
	}
	if len(g.Image) != 1 {
		return nil, fmt.Errorf("%w: gif with %d frames", ErrUnsupportedType, len(g.Image))
	}
	return g.Image[0], nil
}

// headerDepth returns the bits per pixel declared by the file header, or 0
// when the format does not declare one the decoder trusts.
func headerDepth(f *Format, data []byte) int {
	switch f.Name {
	case "png":
		return pngDepth(data)
	case "bmp":
		return bmpDepth(data)
	case "tiff":
		return tiffDepth(data)
	}
	return 0
}

// pngDepth reads bit depth and colour type from the IHDR chunk, which always
// directly follows the 8 byte signature.
func pngDepth(data []byte) int {
	if len(data) < 26 || !bytes.Equal(data[12:16], []byte("IHDR")) {
		return 0
	}
	bitDepth := int(data[24])
	switch colorType := data[25]; colorType {
	case 0, 3: // greyscale, indexed
		return bitDepth
	case 2: // truecolour
		return 3 * bitDepth
	case 4: // greyscale+alpha is expanded to RGBA on load
		return 4 * bitDepth
	case 6: // truecolour+alpha
		return 4 * bitDepth
	}
	return 0
}

// bmpDepth reads biBitCount from a BITMAPINFOHEADER or later.
func bmpDepth(data []byte) int {
	if len(data) < 30 {
		return 0
	}
	if infoLen := binary.LittleEndian.Uint32(data[14:18]); infoLen < 40 {
		return 0
	}
	return int(binary.LittleEndian.Uint16(data[28:30]))
}

// TIFF tags and field types read by tiffDepth.
const (
	tiffBitsPerSample   = 258
	tiffSamplesPerPixel = 277
	tiffShort           = 3
	tiffMaxSamples      = 16
)

// tiffDepth sums BitsPerSample over SamplesPerPixel in the first IFD. The
// decoder widens 1, 2 and 4 bit samples to 8, so the header is the only
// place the real depth is visible.
func tiffDepth(data []byte) int {
	if len(data) < 8 {
		return 0
	}
	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0
	}

	ifd := int64(order.Uint32(data[4:8]))
	if ifd < 8 || ifd+2 > int64(len(data)) {
		return 0
	}
	entries := int64(order.Uint16(data[ifd:]))

	bits := []int{1} // BitsPerSample defaults to 1
	samples := 1
	for i := int64(0); i < entries; i++ {
		e := ifd + 2 + i*12
		if e+12 > int64(len(data)) {
			return 0
		}
		tag := order.Uint16(data[e:])
		typ := order.Uint16(data[e+2:])
		count := int64(order.Uint32(data[e+4:]))
		value := data[e+8 : e+12]

		switch tag {
		case tiffBitsPerSample:
			if typ != tiffShort || count < 1 || count > tiffMaxSamples {
				return 0
			}
			if count > 2 {
				off := int64(order.Uint32(value))
				if off+2*count > int64(len(data)) {
					return 0
				}
				value = data[off : off+2*count]
			}
			bits = make([]int, count)
			for j := range bits {
				bits[j] = int(order.Uint16(value[2*j:]))
			}
		case tiffSamplesPerPixel:
			if typ != tiffShort {
				return 0
			}
			samples = int(order.Uint16(value))
		}
	}
	if samples < 1 || samples > tiffMaxSamples {
		return 0
	}

	depth := 0
	for i := 0; i < samples; i++ {
		if i < len(bits) {
			depth += bits[i]
		} else {
			depth += bits[0]
		}
	}
	return depth
}
