package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"squeeze/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SQUEEZE_API_TOKEN", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "squeeze", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "squeeze", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Compress.DefaultPreset != "medium" {
		t.Fatalf("unexpected default preset %q", cfg.Compress.DefaultPreset)
	}
	if cfg.FFmpeg.VideoCodec != "libx264" || cfg.FFmpeg.AudioCodec != "aac" {
		t.Fatalf("unexpected codecs %+v", cfg.FFmpeg)
	}
	if cfg.Server.Bind != "127.0.0.1:7491" {
		t.Fatalf("unexpected api bind: %q", cfg.Server.Bind)
	}
	if !cfg.ProbeCache.Enabled {
		t.Fatal("expected probe cache enabled by default")
	}
	if cfg.LockPath() != filepath.Join(cfg.Paths.StateDir, "squeeze.lock") {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.OutputDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "squeeze.toml")

	type payload struct {
		Paths struct {
			StagingDir string `toml:"staging_dir"`
		} `toml:"paths"`
		Compress struct {
			DefaultPreset string `toml:"default_preset"`
			KeepStaging   bool   `toml:"keep_staging"`
		} `toml:"compress"`
		Server struct {
			MaxUploadMB int64 `toml:"max_upload_mb"`
		} `toml:"server"`
	}
	custom := payload{}
	custom.Paths.StagingDir = filepath.Join(tempDir, "staging")
	custom.Compress.DefaultPreset = " HIGH "
	custom.Compress.KeepStaging = true
	custom.Server.MaxUploadMB = 64
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if cfg.Paths.StagingDir != custom.Paths.StagingDir {
		t.Fatalf("staging dir = %q", cfg.Paths.StagingDir)
	}
	if cfg.Compress.DefaultPreset != "high" {
		t.Fatalf("expected normalized preset, got %q", cfg.Compress.DefaultPreset)
	}
	if !cfg.Compress.KeepStaging {
		t.Fatal("expected keep_staging true")
	}
	if cfg.MaxUploadBytes() != 64*1024*1024 {
		t.Fatalf("MaxUploadBytes = %d", cfg.MaxUploadBytes())
	}
}

func TestAPITokenFallsBackToEnv(t *testing.T) {
	t.Setenv("SQUEEZE_API_TOKEN", "  env-token ")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.APIToken != "env-token" {
		t.Fatalf("expected env token, got %q", cfg.Server.APIToken)
	}
}

func TestAPITokenFileWinsOverEnv(t *testing.T) {
	t.Setenv("SQUEEZE_API_TOKEN", "env-token")
	path := filepath.Join(t.TempDir(), "squeeze.toml")
	if err := os.WriteFile(path, []byte("[server]\napi_token = \"file-token\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.APIToken != "file-token" {
		t.Fatalf("expected file token, got %q", cfg.Server.APIToken)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"preset", func(c *config.Config) { c.Compress.DefaultPreset = "ultra" }, "compress.default_preset"},
		{"encoder preset", func(c *config.Config) { c.FFmpeg.EncoderPreset = "warp" }, "ffmpeg.encoder_preset"},
		{"upload", func(c *config.Config) { c.Server.MaxUploadMB = -1 }, "server.max_upload_mb"},
		{"retention", func(c *config.Config) { c.ProbeCache.RetentionDays = -5 }, "probe_cache.retention_days"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "notifications.ntfy_topic"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[paths\nstaging_dir ="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestCreateSampleLoadsCleanly(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Compress.DefaultPreset != "medium" {
		t.Fatalf("unexpected sample preset %q", cfg.Compress.DefaultPreset)
	}
}

func TestEncodeMasksToken(t *testing.T) {
	cfg := config.Default()
	cfg.Server.APIToken = "secret"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Fatalf("token leaked in %s", data)
	}
	if !strings.Contains(string(data), "default_preset") {
		t.Fatalf("expected toml keys in %s", data)
	}
}
