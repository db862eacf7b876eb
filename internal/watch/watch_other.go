//go:build !linux

package watch

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Handle is an fsnotify watch on one file. fsnotify has no portable
// close-after-write event, so every Write counts as a reload signal.
type Handle struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

func newHandle(path string, logger *slog.Logger) (*Handle, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w %s: %w", ErrRegisterFailed, path, err)
	}
	return &Handle{path: path, watcher: w, logger: logger}, nil
}

// Poll drains every queued event and reports whether any of them was a
// write. It never blocks.
func (h *Handle) Poll() (bool, error) {
	if h.watcher == nil {
		return false, ErrClosed
	}

	written := false
	for {
		select {
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return false, ErrUnexpectedEOF
			}
			h.logger.Debug("watch event", "path", h.path, "op", ev.Op.String())
			if ev.Has(fsnotify.Write) {
				written = true
			}
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return false, ErrUnexpectedEOF
			}
			return false, fmt.Errorf("%w: %w", ErrReadFailed, err)
		default:
			return written, nil
		}
	}
}

// Close stops the watcher.
func (h *Handle) Close() error {
	if h.watcher == nil {
		return nil
	}
	err := h.watcher.Close()
	h.watcher = nil
	return err
}
