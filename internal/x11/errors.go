package x11

import "errors"

// Errors returned while presenting an image.
var (
	// ErrSurfaceCreation is returned when the server cannot allocate the
	// backing pixmap.
	ErrSurfaceCreation = errors.New("could not create backing store")

	// ErrAttributeQuery is returned when the window geometry cannot be read.
	ErrAttributeQuery = errors.New("could not query window attributes")

	// ErrColorAlloc is returned when the named colour "black" cannot be
	// allocated in the default colormap.
	ErrColorAlloc = errors.New("failed to allocate 'black' color")
)
