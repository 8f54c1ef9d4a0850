package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"squeeze/internal/config"
	"squeeze/internal/testsupport"
)

const stubProbeJSON = `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "duration": "60.0"},
    {"codec_type": "audio", "codec_name": "aac"}
  ],
  "format": {"duration": "60.0", "size": "4096", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`

const stubFFmpegScript = `if [ "$1" = "-version" ]; then
  echo "ffmpeg version 7.1-test Copyright (c) the FFmpeg developers"
  exit 0
fi
for last; do :; done
printf 'out_time_us=30000000\nprogress=continue\n'
printf 'compressed-bytes' > "$last"
printf 'out_time_us=60000000\nprogress=end\n'
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

// setupCLITestEnv writes a config whose ffmpeg and ffprobe binaries are
// shell stubs, so commands run end to end without the real toolchain.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	base := []testsupport.ConfigOption{
		testsupport.WithFFmpegScript(stubFFmpegScript),
		testsupport.WithFFprobeJSON(stubProbeJSON),
	}
	cfg := testsupport.NewConfig(t, append(base, opts...)...)
	cfg.Logging.Level = "error"
	configPath := filepath.Join(testsupport.BaseDir(cfg), "squeeze.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, e.configPath, args...)
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
