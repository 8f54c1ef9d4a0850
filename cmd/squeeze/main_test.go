package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"squeeze/internal/compress"
	"squeeze/internal/daemon"
	"squeeze/internal/testsupport"
)

func TestPresetsCommandMarksDefault(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "presets")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	requireContains(t, out, "Medium (default)")
	requireContains(t, out, "Low")
	requireContains(t, out, "High")
	requireContains(t, out, "64 kbps")
}

func TestPresetsCommandPlansForDuration(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "presets", "--duration", "60")
	if err != nil {
		t.Fatalf("presets --duration: %v", err)
	}
	requireContains(t, out, "757.8 kbps")
	requireContains(t, out, "Est. size")

	out, _, err = env.run(t, "presets", "--duration", "10000")
	if err != nil {
		t.Fatalf("presets long duration: %v", err)
	}
	requireContains(t, out, "infeasible")

	if _, _, err := env.run(t, "presets", "--duration=-5"); err == nil {
		t.Fatal("expected negative duration to be rejected")
	}
}

func TestPresetsCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "presets", "--duration", "60", "--json")
	if err != nil {
		t.Fatalf("presets --json: %v", err)
	}
	var rows []presetRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 presets, got %d", len(rows))
	}
	medium := rows[1]
	if medium.ID != "medium" || !medium.Default {
		t.Fatalf("unexpected medium row %+v", medium)
	}
	if medium.Plan == nil || medium.Plan.VideoBitrate != 757773 || medium.Plan.AudioBitrate != 64000 {
		t.Fatalf("unexpected medium plan %+v", medium.Plan)
	}
}

func TestCompressCommandDeliversOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(testsupport.BaseDir(env.cfg), "input", "clip.mp4")
	testsupport.WriteFile(t, src, 64*1024)
	dest := filepath.Join(testsupport.BaseDir(env.cfg), "delivered", "small.mp4")

	out, stderr, err := env.run(t, "compress", src, "--output", dest, "--json")
	if err != nil {
		t.Fatalf("compress: %v\nstderr: %s", err, stderr)
	}
	var result compress.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode result: %v\n%s", err, out)
	}
	if result.Path != dest {
		t.Fatalf("result path = %q, want %q", result.Path, dest)
	}
	if result.OriginalSize != 64*1024 || result.CompressedSize != int64(len("compressed-bytes")) {
		t.Fatalf("unexpected sizes %+v", result)
	}
	if !strings.HasPrefix(result.FileName, "compressed_video_") {
		t.Fatalf("unexpected file name %q", result.FileName)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read delivered file: %v", err)
	}
	if string(data) != "compressed-bytes" {
		t.Fatalf("delivered content = %q", data)
	}

	lock, err := daemon.AcquireLock(env.cfg.LockPath())
	if err != nil {
		t.Fatalf("lock should be released after compress: %v", err)
	}
	_ = lock.Release()
}

func TestCompressCommandDefaultsToOutputDir(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(testsupport.BaseDir(env.cfg), "clip.mov")
	testsupport.WriteFile(t, src, 8192)

	out, stderr, err := env.run(t, "compress", src, "--preset", "low")
	if err != nil {
		t.Fatalf("compress: %v\nstderr: %s", err, stderr)
	}
	requireContains(t, out, "Compressed")
	requireContains(t, out, env.cfg.Paths.OutputDir)

	entries, err := os.ReadDir(env.cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "compressed_video_") {
		t.Fatalf("unexpected output dir contents %v", entries)
	}
}

func TestCompressCommandRejectsUnsupportedFormat(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(testsupport.BaseDir(env.cfg), "notes.txt")
	testsupport.WriteFile(t, src, 10)

	_, _, err := env.run(t, "compress", src)
	if err == nil {
		t.Fatal("expected unsupported format error")
	}
	requireContains(t, err.Error(), "unsupported_format")
}

func TestCompressCommandRejectsUnknownPreset(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(testsupport.BaseDir(env.cfg), "clip.mp4")
	testsupport.WriteFile(t, src, 10)

	_, _, err := env.run(t, "compress", src, "--preset", "ultra")
	if err == nil {
		t.Fatal("expected unknown preset error")
	}
	requireContains(t, err.Error(), "unknown preset")
}

func TestCompressCommandHonoursInstanceLock(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(testsupport.BaseDir(env.cfg), "clip.mp4")
	testsupport.WriteFile(t, src, 10)

	lock, err := daemon.AcquireLock(env.cfg.LockPath())
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer lock.Release()

	_, _, err = env.run(t, "compress", src)
	if !errors.Is(err, daemon.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestProbeCommandShowsMetadataAndPlans(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(testsupport.BaseDir(env.cfg), "clip.mkv")
	testsupport.WriteFile(t, src, 2048)

	out, _, err := env.run(t, "probe", src)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, out, "1920x1080")
	requireContains(t, out, "h264")
	requireContains(t, out, "2.0 KiB")
	requireContains(t, out, "757.8 kbps")
}

func TestProbeCommandJSONFlagsUnsupportedExtension(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(testsupport.BaseDir(env.cfg), "clip.ts")
	testsupport.WriteFile(t, src, 2048)

	out, _, err := env.run(t, "probe", src, "--json")
	if err != nil {
		t.Fatalf("probe --json: %v", err)
	}
	var payload probeOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Supported {
		t.Fatal(".ts sources should not be reported as supported")
	}
	if payload.Metadata.DurationSeconds != 60 || len(payload.Presets) != 3 {
		t.Fatalf("unexpected probe payload %+v", payload)
	}
}

func TestDepsCommandReportsReady(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "deps")
	if err != nil {
		t.Fatalf("deps: %v\n%s", err, out)
	}
	requireContains(t, out, "== Binaries ==")
	requireContains(t, out, "== Directories ==")
	requireContains(t, out, "[OK] ready")
}

func TestDepsCommandReportsMissingBinary(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.FFmpeg.FFmpegBinary = filepath.Join(testsupport.BaseDir(env.cfg), "missing-ffmpeg")
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := env.run(t, "deps")
	if err == nil {
		t.Fatal("expected deps to fail when ffmpeg is missing")
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "not ready")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications disabled")
}

type ntfyCapture struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func (c *ntfyCapture) snapshot() ([]string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.titles...), append([]string(nil), c.bodies...)
}

func newNtfyServer(t *testing.T) (*httptest.Server, *ntfyCapture) {
	t.Helper()
	capture := &ntfyCapture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		capture.mu.Lock()
		capture.titles = append(capture.titles, r.Header.Get("Title"))
		capture.bodies = append(capture.bodies, string(body))
		capture.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, capture
}

func TestCompressCommandNotifiesCompletion(t *testing.T) {
	srv, capture := newNtfyServer(t)
	env := setupCLITestEnv(t, testsupport.WithNtfyTopic(srv.URL+"/squeeze"))
	src := filepath.Join(testsupport.BaseDir(env.cfg), "clip.mp4")
	testsupport.WriteFile(t, src, 4096)

	if _, stderr, err := env.run(t, "compress", src, "--json"); err != nil {
		t.Fatalf("compress: %v\nstderr: %s", err, stderr)
	}

	titles, bodies := capture.snapshot()
	if len(titles) != 1 || titles[0] != "Squeeze - Compressed" {
		t.Fatalf("expected one completion notification when the command returns, got %v", titles)
	}
	requireContains(t, bodies[0], "compressed_video_")
}

func TestCompressCommandNotifiesFailure(t *testing.T) {
	srv, capture := newNtfyServer(t)
	failing := `if [ "$1" = "-version" ]; then
  echo "ffmpeg version 7.1-test"
  exit 0
fi
echo "encoder exploded" >&2
exit 1
`
	env := setupCLITestEnv(t,
		testsupport.WithFFmpegScript(failing),
		testsupport.WithNtfyTopic(srv.URL+"/squeeze"),
	)
	src := filepath.Join(testsupport.BaseDir(env.cfg), "clip.mp4")
	testsupport.WriteFile(t, src, 4096)

	_, _, err := env.run(t, "compress", src)
	if err == nil {
		t.Fatal("expected compression failure")
	}

	titles, _ := capture.snapshot()
	if len(titles) != 1 || titles[0] != "Squeeze - Failed" {
		t.Fatalf("expected one failure notification when the command returns, got %v", titles)
	}
}
