package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/1broseidon/imagewatch/internal/decode"
	"github.com/1broseidon/imagewatch/internal/viewer"
	"github.com/1broseidon/imagewatch/internal/watch"
	"github.com/1broseidon/imagewatch/internal/x11"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: imagewatch <filename>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Shows the image in a window and redraws it whenever the file is rewritten.")
}

func run(args []string, stderr io.Writer) int {
	if len(args) != 1 {
		printUsage(stderr)
		return 2
	}
	path := args[0]

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := view(ctx, path, logger); err != nil {
		logger.Error("imagewatch failed", "path", path, "error", err)
		return 1
	}
	return 0
}

// view owns every X and watch resource for the lifetime of the window.
// Each is released in reverse order of acquisition.
func view(ctx context.Context, path string, logger *slog.Logger) error {
	conn, err := x11.NewConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	win, err := x11.NewWindow(conn, filepath.Base(path), logger)
	if err != nil {
		return err
	}
	defer win.Destroy()

	surface, err := x11.NewSurface(conn, win)
	if err != nil {
		return err
	}
	defer surface.Close()

	handle, err := watch.WatchWithLogger(path, logger)
	if err != nil {
		return err
	}
	defer handle.Close()

	decoder := &decode.Decoder{Logger: logger}
	v := viewer.New(path, viewer.Config{
		Surface: surface,
		Watcher: handle,
		Events:  win,
		Decode:  decoder.Decode,
		Logger:  logger,
	})
	if err := v.Load(); err != nil {
		return err
	}

	return v.Run(ctx)
}
