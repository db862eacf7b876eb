package watch

import "errors"

// Errors returned by the watcher.
var (
	// ErrInitFailed is returned when the notification mechanism cannot be
	// created.
	ErrInitFailed = errors.New("could not initialize file watch")

	// ErrRegisterFailed is returned when the path cannot be watched.
	ErrRegisterFailed = errors.New("could not add watch")

	// ErrReadFailed is returned when pending events cannot be read.
	ErrReadFailed = errors.New("error reading watch events")

	// ErrUnexpectedEOF is returned when the event channel reports end of
	// stream while the watch is still active.
	ErrUnexpectedEOF = errors.New("read nothing from watch")

	// ErrClosed is returned when polling a closed handle.
	ErrClosed = errors.New("watch is closed")
)
