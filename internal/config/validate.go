package config

import (
	"errors"
	"fmt"
	"strings"

	"squeeze/internal/budget"
)

var encoderPresets = map[string]struct{}{
	"ultrafast": {}, "superfast": {}, "veryfast": {}, "faster": {}, "fast": {},
	"medium": {}, "slow": {}, "slower": {}, "veryslow": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateCompress(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateProbeCache(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFFmpeg() error {
	if _, ok := encoderPresets[c.FFmpeg.EncoderPreset]; !ok {
		return fmt.Errorf("ffmpeg.encoder_preset: unsupported value %q", c.FFmpeg.EncoderPreset)
	}
	return nil
}

func (c *Config) validateCompress() error {
	if _, err := budget.ParsePresetID(c.Compress.DefaultPreset); err != nil {
		return fmt.Errorf("compress.default_preset: %w", err)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.MaxUploadMB < 0 {
		return errors.New("server.max_upload_mb must be positive")
	}
	return nil
}

func (c *Config) validateProbeCache() error {
	if c.ProbeCache.RetentionDays < 0 {
		return errors.New("probe_cache.retention_days must be zero or positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic: expected a full http(s) topic URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
