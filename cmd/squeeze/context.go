package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"squeeze/internal/config"
	"squeeze/internal/engine"
	"squeeze/internal/engine/ffmpeg"
	"squeeze/internal/logging"
	"squeeze/internal/probecache"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// session loads config and logger together, which every job-running command
// needs before doing anything else.
func (c *commandContext) session() (*config.Config, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// buildEngine constructs the ffmpeg engine and, when enabled, the probe cache
// in front of it. The returned store is nil when caching is off or the
// database could not be opened; callers close it when non-nil.
func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (engine.Engine, *probecache.Store) {
	var eng engine.Engine = ffmpeg.New(
		ffmpeg.WithBinaries(cfg.FFmpeg.FFmpegBinary, cfg.FFmpeg.FFprobeBinary),
		ffmpeg.WithCodecs(cfg.FFmpeg.VideoCodec, cfg.FFmpeg.AudioCodec, cfg.FFmpeg.EncoderPreset),
		ffmpeg.WithLogger(logging.NewComponentLogger(logger, "ffmpeg")),
	)
	if !cfg.ProbeCache.Enabled {
		return eng, nil
	}

	store, err := probecache.Open(cfg.ProbeCachePath())
	if err != nil {
		logging.WarnWithContext(logger, "probe cache unavailable", "probe_cache_open_failed",
			logging.String("path", cfg.ProbeCachePath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "every source is probed with ffprobe"),
		)
		return eng, nil
	}
	if days := cfg.ProbeCache.RetentionDays; days > 0 {
		removed, err := store.Prune(ctx, time.Duration(days)*24*time.Hour)
		if err != nil {
			logger.Warn("probe cache prune failed", logging.Error(err))
		} else if removed > 0 {
			logger.Debug("probe cache pruned", logging.Int64("removed", removed))
		}
	}
	return probecache.Wrap(eng, store, logger), store
}

// parseSourceArg expands local paths so relative and ~ paths reach ffmpeg
// as absolute locations. URLs pass through untouched.
func parseSourceArg(value string) (engine.Source, error) {
	src := engine.ParseSource(value)
	if src.IsURL() {
		return src, nil
	}
	expanded, err := config.ExpandPath(src.Path)
	if err != nil {
		return engine.Source{}, err
	}
	return engine.FileSource(expanded), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
