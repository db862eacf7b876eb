package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRun_ArgumentCount(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no arguments", nil, 2},
		{"two arguments", []string{"a.png", "b.png"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := run(tt.args, &stderr); got != tt.want {
				t.Fatalf("run(%q) = %d, want %d", tt.args, got, tt.want)
			}
			if !strings.Contains(stderr.String(), "Usage: imagewatch <filename>") {
				t.Fatalf("stderr = %q, want usage", stderr.String())
			}
		})
	}
}

func TestRun_NoDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")

	var stderr bytes.Buffer
	if got := run([]string{"image.png"}, &stderr); got != 1 {
		t.Fatalf("run() = %d, want 1", got)
	}
	if !strings.Contains(stderr.String(), "cannot open display") {
		t.Fatalf("stderr = %q, want display error", stderr.String())
	}
}

func TestRun_FlagLikeNameIsAFilename(t *testing.T) {
	t.Setenv("DISPLAY", "")

	var stderr bytes.Buffer
	if got := run([]string{"--help"}, &stderr); got != 1 {
		t.Fatalf("run(--help) = %d, want 1", got)
	}
	if strings.Contains(stderr.String(), "Usage:") {
		t.Fatalf("stderr = %q, want no usage for a single argument", stderr.String())
	}
	if !strings.Contains(stderr.String(), "path=--help") {
		t.Fatalf("stderr = %q, want the argument treated as the path", stderr.String())
	}
}
