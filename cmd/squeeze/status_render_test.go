package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"squeeze/internal/deps"
	"squeeze/internal/preflight"
	"squeeze/internal/testsupport"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Summary", statusOK, "ready", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestBinaryAndDirectoryLines(t *testing.T) {
	lines := binaryLines([]deps.Status{
		{Name: "FFmpeg", Available: true, Version: "7.1"},
		{Name: "FFprobe", Detail: `binary "ffprobe" not found`},
		{Name: "Extra", Optional: true, Detail: "not configured"},
	}, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	requireContains(t, lines[0], "[OK] Ready (7.1)")
	requireContains(t, lines[1], "[ERROR] binary")
	requireContains(t, lines[2], "[WARN] not configured")

	dirs := directoryLines([]preflight.Result{
		{Name: "Staging directory", Passed: true, Detail: "/tmp (read/write ok)"},
		{Name: "Output directory", Detail: "/nope (error: does not exist)"},
	}, false)
	requireContains(t, dirs[0], "[OK]")
	requireContains(t, dirs[1], "[ERROR] /nope")
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestResolveOutputPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	const name = "compressed_video_1.mp4"

	got, err := resolveOutputPath(cfg, "", name)
	if err != nil || got != filepath.Join(cfg.Paths.OutputDir, name) {
		t.Fatalf("default output = %q, %v", got, err)
	}

	dir := t.TempDir()
	got, err = resolveOutputPath(cfg, dir, name)
	if err != nil || got != filepath.Join(dir, name) {
		t.Fatalf("directory output = %q, %v", got, err)
	}

	file := filepath.Join(dir, "nested", "final.mp4")
	got, err = resolveOutputPath(cfg, file, name)
	if err != nil || got != file {
		t.Fatalf("file output = %q, %v", got, err)
	}
	requireDir(t, filepath.Dir(file))
}

func TestFormatSeconds(t *testing.T) {
	cases := map[float64]string{
		60:      "1m0s",
		943.718: "15m44s",
		0.4:     "0s",
	}
	for in, want := range cases {
		if got := formatSeconds(in); got != want {
			t.Errorf("formatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}
