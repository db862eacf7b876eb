//go:build linux

package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Room for a handful of events per read; names are only set for directory
// watches but the kernel may still pad records up to NAME_MAX.
const eventBufLen = 10 * (unix.SizeofInotifyEvent + unix.NAME_MAX + 1)

// Handle is an inotify watch on one file.
type Handle struct {
	path   string
	fd     int
	wd     int
	logger *slog.Logger
	read   func(fd int, p []byte) (int, error)
	buf    [eventBufLen]byte
}

func newHandle(path string, logger *slog.Logger) (*Handle, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	wd, err := unix.InotifyAddWatch(fd, path, unix.IN_CLOSE_WRITE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w %s: %w", ErrRegisterFailed, path, err)
	}

	return &Handle{
		path:   path,
		fd:     fd,
		wd:     wd,
		logger: logger,
		read:   unix.Read,
	}, nil
}

// Poll drains every queued event and reports whether any of them was a
// close-after-write. It never blocks.
func (h *Handle) Poll() (bool, error) {
	if h.fd < 0 {
		return false, ErrClosed
	}

	written := false
	for {
		n, err := h.read(h.fd, h.buf[:])
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.EAGAIN) {
				return written, nil
			}
			return false, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}
		if n == 0 {
			return false, ErrUnexpectedEOF
		}
		if h.scan(h.buf[:n]) {
			written = true
		}
	}
}

// scan walks the event records in buf.
func (h *Handle) scan(buf []byte) bool {
	written := false
	for offset := 0; offset+unix.SizeofInotifyEvent <= len(buf); {
		ev := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		h.logger.Debug("watch event", "path", h.path, "mask", fmt.Sprintf("%#x", ev.Mask))
		if ev.Mask&unix.IN_CLOSE_WRITE != 0 {
			written = true
		}
		if ev.Mask&unix.IN_IGNORED != 0 {
			h.logger.Warn("watch removed by kernel", "path", h.path)
		}
		offset += unix.SizeofInotifyEvent + int(ev.Len)
	}
	return written
}

// Close removes the watch and releases the descriptor.
func (h *Handle) Close() error {
	if h.fd < 0 {
		return nil
	}
	// The watch may already be gone if the file was deleted.
	_, _ = unix.InotifyRmWatch(h.fd, uint32(h.wd))
	err := unix.Close(h.fd)
	h.fd = -1
	return err
}
