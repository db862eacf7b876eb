package watch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newWatchedFile(t *testing.T) (string, *Handle) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.png")
	if err := os.WriteFile(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	h, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch(%q) error: %v", path, err)
	}
	t.Cleanup(func() { h.Close() })
	return path, h
}

// pollUntil polls until a signal arrives. inotify queues synchronously; the
// fsnotify backends deliver through a goroutine and may lag slightly.
func pollUntil(t *testing.T, h *Handle) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := h.Poll()
		if err != nil {
			t.Fatalf("Poll() error: %v", err)
		}
		if got {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestPoll_NoEventsReturnsFalse(t *testing.T) {
	_, h := newWatchedFile(t)

	got, err := h.Poll()
	if err != nil {
		t.Fatalf("Poll() error: %v", err)
	}
	if got {
		t.Fatal("Poll() = true before any write")
	}
}

func TestPoll_ReportsWrite(t *testing.T) {
	path, h := newWatchedFile(t)

	if err := os.WriteFile(path, []byte("second"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !pollUntil(t, h) {
		t.Fatal("Poll() never reported the write")
	}
}

func TestWatch_MissingPathFailsToRegister(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, ErrRegisterFailed) {
		t.Fatalf("Watch() error = %v, want ErrRegisterFailed", err)
	}
}

func TestPoll_AfterClose(t *testing.T) {
	_, h := newWatchedFile(t)

	if err := h.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
	if _, err := h.Poll(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Poll() after Close error = %v, want ErrClosed", err)
	}
}
