// Package watch reports when a single file has been rewritten.
//
// On Linux the watch is an inotify descriptor registered for IN_CLOSE_WRITE,
// so a signal only arrives once the writer has closed the file. Other
// platforms fall back to fsnotify write events.
package watch

import (
	"io"
	"log/slog"
)

// Watch registers path and returns a handle that can be polled without
// blocking. The handle must be closed by the caller.
func Watch(path string) (*Handle, error) {
	return WatchWithLogger(path, nil)
}

// WatchWithLogger is Watch with debug logging of every drained event.
func WatchWithLogger(path string, logger *slog.Logger) (*Handle, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return newHandle(path, logger)
}

// Path returns the watched path.
func (h *Handle) Path() string {
	return h.path
}
