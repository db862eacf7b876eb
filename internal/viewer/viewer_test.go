package viewer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/imagewatch/internal/decode"
	"github.com/1broseidon/imagewatch/internal/x11"
)

// recorder collects the calls made against the fakes in order.
type recorder struct {
	calls []string
}

type fakeSurface struct {
	rec       *recorder
	updates   []*decode.PixelBuffer
	redraws   int
	redrawErr error
}

func (s *fakeSurface) Update(buf *decode.PixelBuffer) error {
	s.rec.calls = append(s.rec.calls, "update")
	s.updates = append(s.updates, buf)
	return nil
}

func (s *fakeSurface) Redraw() error {
	s.rec.calls = append(s.rec.calls, "redraw")
	s.redraws++
	return s.redrawErr
}

func (s *fakeSurface) last() *decode.PixelBuffer {
	if len(s.updates) == 0 {
		return nil
	}
	return s.updates[len(s.updates)-1]
}

type fakeWatcher struct {
	rec     *recorder
	results []bool
	err     error
}

func (w *fakeWatcher) Poll() (bool, error) {
	w.rec.calls = append(w.rec.calls, "poll")
	if w.err != nil {
		return false, w.err
	}
	if len(w.results) == 0 {
		return false, nil
	}
	got := w.results[0]
	w.results = w.results[1:]
	return got, nil
}

type fakeEvents struct {
	queue []x11.EventKind
}

func (e *fakeEvents) NextEvent() (x11.EventKind, bool) {
	if len(e.queue) == 0 {
		return x11.EventOther, false
	}
	k := e.queue[0]
	e.queue = e.queue[1:]
	return k, true
}

type harness struct {
	rec     *recorder
	surface *fakeSurface
	watcher *fakeWatcher
	events  *fakeEvents
	viewer  *Viewer
}

func newHarness(t *testing.T, path string, decodeFn DecodeFunc) *harness {
	t.Helper()
	rec := &recorder{}
	h := &harness{
		rec:     rec,
		surface: &fakeSurface{rec: rec},
		watcher: &fakeWatcher{rec: rec},
		events:  &fakeEvents{},
	}
	h.viewer = New(path, Config{
		Surface: h.surface,
		Watcher: h.watcher,
		Events:  h.events,
		Decode:  decodeFn,
		Sleep:   func(context.Context, time.Duration) {},
	})
	return h
}

func writeSolidPNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestStep_ReloadsRewrittenImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	writeSolidPNG(t, path, 50, 50, color.NRGBA{R: 255, A: 255})

	h := newHarness(t, path, nil)
	require.NoError(t, h.viewer.Load())
	require.Equal(t, 50, h.surface.last().Width)

	writeSolidPNG(t, path, 80, 60, color.NRGBA{B: 255, A: 255})
	h.watcher.results = []bool{true}
	h.rec.calls = nil

	require.NoError(t, h.viewer.Step())

	buf := h.surface.last()
	require.NotNil(t, buf)
	assert.Equal(t, 80, buf.Width)
	assert.Equal(t, 60, buf.Height)
	b, g, r, a := buf.BGRA(0, 0)
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, [4]uint8{b, g, r, a})
	assert.Equal(t, []string{"poll", "update", "redraw"}, h.rec.calls)
	assert.Equal(t, StateRunning, h.viewer.State())
}

func TestStep_NoChangeDoesNotRedraw(t *testing.T) {
	decodes := 0
	h := newHarness(t, "unused.png", func(string) (*decode.PixelBuffer, error) {
		decodes++
		return &decode.PixelBuffer{Width: 1, Height: 1, Pix: make([]byte, 4)}, nil
	})

	require.NoError(t, h.viewer.Step())
	assert.Zero(t, decodes)
	assert.Equal(t, []string{"poll"}, h.rec.calls)
}

func TestStep_ReloadFailureIsFatal(t *testing.T) {
	decodeErr := errors.New("truncated")
	h := newHarness(t, "img.png", func(string) (*decode.PixelBuffer, error) {
		return nil, decodeErr
	})
	h.watcher.results = []bool{true}

	err := h.viewer.Step()
	require.ErrorIs(t, err, decodeErr)
	assert.Empty(t, h.surface.updates)
	assert.Zero(t, h.surface.redraws)
}

func TestStep_PollFailureIsFatal(t *testing.T) {
	h := newHarness(t, "img.png", nil)
	h.watcher.err = errors.New("read nothing from watch")

	require.ErrorIs(t, h.viewer.Step(), h.watcher.err)
}

func TestStep_ExposeRedraws(t *testing.T) {
	h := newHarness(t, "img.png", nil)
	h.events.queue = []x11.EventKind{x11.EventExpose, x11.EventOther, x11.EventExpose}

	require.NoError(t, h.viewer.Step())
	assert.Equal(t, 2, h.surface.redraws)
	assert.Empty(t, h.events.queue)
}

func TestStep_RedrawFailureIsFatal(t *testing.T) {
	h := newHarness(t, "img.png", nil)
	h.surface.redrawErr = x11.ErrColorAlloc
	h.events.queue = []x11.EventKind{x11.EventExpose}

	require.ErrorIs(t, h.viewer.Step(), x11.ErrColorAlloc)
}

func TestStep_CloseStopsDraining(t *testing.T) {
	h := newHarness(t, "img.png", nil)
	h.events.queue = []x11.EventKind{x11.EventClose, x11.EventExpose}

	require.NoError(t, h.viewer.Step())
	assert.Equal(t, StateShuttingDown, h.viewer.State())
	assert.Zero(t, h.surface.redraws)
	assert.Len(t, h.events.queue, 1)

	// Further steps are no-ops.
	h.rec.calls = nil
	require.NoError(t, h.viewer.Step())
	assert.Empty(t, h.rec.calls)
}

func TestRun_ReturnsAfterClose(t *testing.T) {
	h := newHarness(t, "img.png", nil)
	sleeps := 0
	h.viewer.sleep = func(context.Context, time.Duration) {
		sleeps++
		if sleeps == 3 {
			h.events.queue = append(h.events.queue, x11.EventClose)
		}
	}

	require.NoError(t, h.viewer.Run(context.Background()))
	assert.Equal(t, StateShuttingDown, h.viewer.State())
	assert.Equal(t, 3, sleeps)
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := newHarness(t, "img.png", nil)
	ctx, cancel := context.WithCancel(context.Background())
	h.viewer.sleep = func(context.Context, time.Duration) { cancel() }

	require.NoError(t, h.viewer.Run(ctx))
	assert.Equal(t, StateShuttingDown, h.viewer.State())
	assert.Equal(t, []string{"poll"}, h.rec.calls)
}

func TestRun_PropagatesStepError(t *testing.T) {
	h := newHarness(t, "img.png", func(string) (*decode.PixelBuffer, error) {
		return nil, decode.ErrUnknownFormat
	})
	h.watcher.results = []bool{false, true}

	err := h.viewer.Run(context.Background())
	require.ErrorIs(t, err, decode.ErrUnknownFormat)
	assert.Equal(t, StateRunning, h.viewer.State())
}

func TestLoad_MissingFile(t *testing.T) {
	h := newHarness(t, filepath.Join(t.TempDir(), "gone.png"), nil)

	err := h.viewer.Load()
	require.ErrorIs(t, err, decode.ErrLoadFailed)
	assert.Empty(t, h.surface.updates)
}
