// Package viewer runs the reload and redraw loop for one watched image.
package viewer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/imagewatch/internal/decode"
	"github.com/1broseidon/imagewatch/internal/x11"
)

// PollInterval is the pause between loop iterations. It bounds reload
// latency and idle CPU use.
const PollInterval = 50 * time.Millisecond

// Surface holds the current image and paints it.
type Surface interface {
	Update(buf *decode.PixelBuffer) error
	Redraw() error
}

// Watcher reports whether the image was rewritten since the last poll.
type Watcher interface {
	Poll() (bool, error)
}

// EventSource yields pending window events without blocking.
type EventSource interface {
	NextEvent() (x11.EventKind, bool)
}

// DecodeFunc turns a file into a pixel buffer.
type DecodeFunc func(path string) (*decode.PixelBuffer, error)

// State is the loop state.
type State int

const (
	StateRunning State = iota
	StateShuttingDown
)

func (s State) String() string {
	if s == StateShuttingDown {
		return "shutting down"
	}
	return "running"
}

// Config holds the collaborators of a Viewer.
type Config struct {
	Surface Surface
	Watcher Watcher
	Events  EventSource

	// Decode defaults to a decode.Decoder using Logger.
	Decode DecodeFunc
	// Sleep defaults to a context-aware wait of the given duration.
	Sleep  func(ctx context.Context, d time.Duration)
	Logger *slog.Logger
}

// Viewer keeps one window in sync with one image file.
type Viewer struct {
	path    string
	surface Surface
	watcher Watcher
	events  EventSource
	decode  DecodeFunc
	sleep   func(ctx context.Context, d time.Duration)
	logger  *slog.Logger

	state         State
	reloadPending bool
}

// New creates a viewer for path.
func New(path string, cfg Config) *Viewer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	decodeFn := cfg.Decode
	if decodeFn == nil {
		d := &decode.Decoder{Logger: logger}
		decodeFn = d.Decode
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = wait
	}

	return &Viewer{
		path:    path,
		surface: cfg.Surface,
		watcher: cfg.Watcher,
		events:  cfg.Events,
		decode:  decodeFn,
		sleep:   sleep,
		logger:  logger,
		state:   StateRunning,
	}
}

// State returns the current loop state.
func (v *Viewer) State() State {
	return v.state
}

// Load decodes the image and hands it to the surface.
func (v *Viewer) Load() error {
	buf, err := v.decode(v.path)
	if err != nil {
		return err
	}
	if err := v.surface.Update(buf); err != nil {
		return fmt.Errorf("update surface: %w", err)
	}
	v.logger.Info("image loaded", "path", v.path, "width", buf.Width, "height", buf.Height)
	return nil
}

// Step runs one loop iteration. A non-nil error ends the loop.
func (v *Viewer) Step() error {
	if v.state != StateRunning {
		return nil
	}

	changed, err := v.watcher.Poll()
	if err != nil {
		return fmt.Errorf("poll watch: %w", err)
	}
	if changed {
		v.reloadPending = true
	}

	if v.reloadPending {
		v.logger.Debug("reloading", "path", v.path)
		if err := v.Load(); err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		v.reloadPending = false

		// A reload always completes before its redraw.
		if err := v.surface.Redraw(); err != nil {
			return fmt.Errorf("redraw: %w", err)
		}
	}

	for {
		kind, ok := v.events.NextEvent()
		if !ok {
			return nil
		}
		switch kind {
		case x11.EventExpose:
			if err := v.surface.Redraw(); err != nil {
				return fmt.Errorf("redraw: %w", err)
			}
		case x11.EventClose:
			v.logger.Info("window closed")
			v.state = StateShuttingDown
			return nil
		}
	}
}

// Run steps the loop until the window is closed, ctx is done, or an
// iteration fails.
func (v *Viewer) Run(ctx context.Context) error {
	v.logger.Info("watching", "path", v.path, "interval", PollInterval)

	for v.state == StateRunning {
		if err := ctx.Err(); err != nil {
			v.logger.Info("viewer stopped", "reason", context.Cause(ctx))
			v.state = StateShuttingDown
			return nil
		}
		if err := v.Step(); err != nil {
			return err
		}
		if v.state == StateRunning {
			v.sleep(ctx, PollInterval)
		}
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
