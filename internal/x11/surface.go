package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xgraphics"

	"github.com/1broseidon/imagewatch/internal/decode"
)

// backingDepth is the depth of the image pixmap. xgraphics uploads
// BGRA data as ZPixmap at depth 24.
const backingDepth = 24

// maxUploadWidth is the widest image whose single row fits in one
// PutImage request.
const maxUploadWidth = (xgbutil.MaxReqSize - 28) / decode.BytesPerPixel

// Surface holds the server-side copy of the current image and paints it
// into a window.
type Surface struct {
	conn   *Connection
	window *Window
	gc     xproto.Gcontext

	store  xproto.Pixmap
	width  int
	height int

	black    uint32
	hasBlack bool
}

// NewSurface creates the graphics context used to paint window.
func NewSurface(conn *Connection, window *Window) (*Surface, error) {
	c := conn.Conn()
	gc, err := xproto.NewGcontextId(c)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate gc id: %w", err)
	}
	err = xproto.CreateGCChecked(c, gc, xproto.Drawable(window.ID()), 0, nil).Check()
	if err != nil {
		return nil, fmt.Errorf("failed to create gc: %w", err)
	}
	return &Surface{conn: conn, window: window, gc: gc}, nil
}

// Size reports the dimensions of the current image, or zero before the
// first Update.
func (s *Surface) Size() (width, height int) {
	return s.width, s.height
}

// Update replaces the backing store with buf. The previous store is kept
// if the new one cannot be created.
func (s *Surface) Update(buf *decode.PixelBuffer) error {
	if buf == nil || buf.Width <= 0 || buf.Height <= 0 {
		return fmt.Errorf("%w: empty image", ErrSurfaceCreation)
	}
	if buf.Width > maxUploadWidth || buf.Height > 0xffff {
		return fmt.Errorf("%w: image %dx%d is too large", ErrSurfaceCreation, buf.Width, buf.Height)
	}

	c := s.conn.Conn()
	pid, err := xproto.NewPixmapId(c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSurfaceCreation, err)
	}
	err = xproto.CreatePixmapChecked(c, backingDepth, pid,
		xproto.Drawable(s.window.ID()), uint16(buf.Width), uint16(buf.Height)).Check()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSurfaceCreation, err)
	}

	img := &xgraphics.Image{
		X:      s.conn.XUtil,
		Pixmap: pid,
		Pix:    buf.Pix,
		Stride: buf.Stride(),
		Rect:   image.Rect(0, 0, buf.Width, buf.Height),
	}
	img.XDraw()

	if s.store != 0 {
		xproto.FreePixmap(c, s.store)
	}
	s.store = pid
	s.width, s.height = buf.Width, buf.Height
	return nil
}

// Redraw fills the window with black and copies the image to its top-left
// corner.
func (s *Surface) Redraw() error {
	c := s.conn.Conn()
	win := xproto.Drawable(s.window.ID())

	geom, err := xproto.GetGeometry(c, win).Reply()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAttributeQuery, err)
	}

	black, err := s.blackPixel()
	if err != nil {
		return err
	}

	fill, area := redrawRects(int(geom.Width), int(geom.Height), s.width, s.height)

	xproto.ChangeGC(c, s.gc, xproto.GcForeground, []uint32{black})
	xproto.PolyFillRectangle(c, win, s.gc, []xproto.Rectangle{fill})
	if s.store != 0 && area.Width > 0 && area.Height > 0 {
		xproto.CopyArea(c, xproto.Drawable(s.store), win, s.gc,
			area.X, area.Y, area.X, area.Y, area.Width, area.Height)
	}
	s.conn.Flush()
	return nil
}

// blackPixel allocates "black" in the default colormap on first use.
func (s *Surface) blackPixel() (uint32, error) {
	if s.hasBlack {
		return s.black, nil
	}
	cmap := s.conn.XUtil.Screen().DefaultColormap
	reply, err := xproto.AllocNamedColor(s.conn.Conn(), cmap, uint16(len("black")), "black").Reply()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrColorAlloc, err)
	}
	s.black, s.hasBlack = reply.Pixel, true
	return s.black, nil
}

// redrawRects returns the window-sized fill and the image area to copy,
// both anchored at the origin.
func redrawRects(winW, winH, imgW, imgH int) (fill, area xproto.Rectangle) {
	fill = xproto.Rectangle{Width: clampDim(winW), Height: clampDim(winH)}
	area = xproto.Rectangle{Width: clampDim(imgW), Height: clampDim(imgH)}
	return fill, area
}

func clampDim(v int) uint16 {
	switch {
	case v < 0:
		return 0
	case v > 0xffff:
		return 0xffff
	}
	return uint16(v)
}

// Close frees the backing store, the cached colour and the graphics
// context.
func (s *Surface) Close() {
	if s == nil || s.conn == nil {
		return
	}
	c := s.conn.Conn()
	if s.store != 0 {
		xproto.FreePixmap(c, s.store)
		s.store = 0
	}
	if s.hasBlack {
		cmap := s.conn.XUtil.Screen().DefaultColormap
		xproto.FreeColors(c, cmap, 0, []uint32{s.black})
		s.hasBlack = false
	}
	if s.gc != 0 {
		xproto.FreeGC(c, s.gc)
		s.gc = 0
	}
	s.width, s.height = 0, 0
}
