package x11

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Initial window geometry. The window is not resized to the image.
const (
	WindowX      = 10
	WindowY      = 10
	WindowWidth  = 100
	WindowHeight = 100
	windowBorder = 1
)

// EventKind is the part of an X event the viewer acts on.
type EventKind int

const (
	EventOther EventKind = iota
	EventExpose
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventExpose:
		return "expose"
	case EventClose:
		return "close"
	}
	return "other"
}

// protocolAtoms identifies the WM_DELETE_WINDOW client message.
type protocolAtoms struct {
	protocols    xproto.Atom
	deleteWindow xproto.Atom
}

// Window is the top-level viewer window.
type Window struct {
	conn   *Connection
	win    *xwindow.Window
	atoms  protocolAtoms
	logger *slog.Logger
}

// NewWindow creates and maps the viewer window. Closing it through the
// window manager is delivered as an EventClose rather than killing the
// connection.
func NewWindow(conn *Connection, title string, logger *slog.Logger) (*Window, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	xu := conn.XUtil

	win, err := xwindow.Generate(xu)
	if err != nil {
		return nil, fmt.Errorf("failed to generate window id: %w", err)
	}

	screen := xu.Screen()
	err = xproto.CreateWindowChecked(
		xu.Conn(),
		screen.RootDepth,
		win.Id,
		conn.Root,
		WindowX, WindowY,
		WindowWidth, WindowHeight,
		windowBorder,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwEventMask,
		// Value list order follows the bit positions of the mask.
		[]uint32{
			screen.BlackPixel,
			screen.BlackPixel,
			xproto.EventMaskExposure | xproto.EventMaskKeyPress,
		},
	).Check()
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w := &Window{conn: conn, win: win, logger: logger}

	if w.atoms.protocols, err = xprop.Atm(xu, "WM_PROTOCOLS"); err != nil {
		w.Destroy()
		return nil, fmt.Errorf("failed to intern WM_PROTOCOLS: %w", err)
	}
	if w.atoms.deleteWindow, err = xprop.Atm(xu, "WM_DELETE_WINDOW"); err != nil {
		w.Destroy()
		return nil, fmt.Errorf("failed to intern WM_DELETE_WINDOW: %w", err)
	}
	if err := icccm.WmProtocolsSet(xu, win.Id, []string{"WM_DELETE_WINDOW"}); err != nil {
		w.Destroy()
		return nil, fmt.Errorf("failed to set WM_PROTOCOLS: %w", err)
	}

	if title != "" {
		// Best effort; a missing title does not affect display.
		if err := icccm.WmNameSet(xu, win.Id, title); err != nil {
			logger.Warn("failed to set WM_NAME", "error", err)
		}
		if err := ewmh.WmNameSet(xu, win.Id, title); err != nil {
			logger.Warn("failed to set _NET_WM_NAME", "error", err)
		}
	}

	win.Map()
	return w, nil
}

// ID returns the X window id.
func (w *Window) ID() xproto.Window {
	if w.win == nil {
		return 0
	}
	return w.win.Id
}

// NextEvent returns the next queued event for this window without blocking.
// ok is false once the queue is empty.
func (w *Window) NextEvent() (kind EventKind, ok bool) {
	if w.win == nil {
		return EventOther, false
	}
	xu := w.conn.XUtil
	for {
		if xevent.Empty(xu) {
			xevent.Read(xu, false)
		}
		if xevent.Empty(xu) {
			return EventOther, false
		}

		ev, xerr := xevent.Dequeue(xu)
		if xerr != nil {
			// Errors from unchecked requests arrive here.
			w.logger.Warn("x11 error", "error", xerr)
			continue
		}
		if ev == nil {
			continue
		}
		return classify(ev, w.win.Id, w.atoms), true
	}
}

func classify(ev xgb.Event, win xproto.Window, atoms protocolAtoms) EventKind {
	switch e := ev.(type) {
	case xproto.ExposeEvent:
		if e.Window == win {
			return EventExpose
		}
	case xproto.ClientMessageEvent:
		if e.Window != win || e.Format != 32 || e.Type != atoms.protocols {
			return EventOther
		}
		if len(e.Data.Data32) > 0 && xproto.Atom(e.Data.Data32[0]) == atoms.deleteWindow {
			return EventClose
		}
	}
	return EventOther
}

// Destroy destroys the window. It is safe to call more than once.
func (w *Window) Destroy() {
	if w == nil || w.win == nil {
		return
	}
	w.win.Destroy()
	w.win = nil
}
