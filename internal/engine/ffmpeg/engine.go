package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"squeeze/internal/engine"
	"squeeze/internal/logging"
	"squeeze/internal/media/ffprobe"
)

var (
	commandContext = exec.CommandContext
	lookPath       = exec.LookPath
	probe          = ffprobe.Inspect
)

// Engine runs probes and transcodes through the ffmpeg toolchain.
type Engine struct {
	ffmpegBinary  string
	ffprobeBinary string
	videoCodec    string
	audioCodec    string
	encoderPreset string
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithBinaries overrides the ffmpeg and ffprobe executables.
func WithBinaries(ffmpegBinary, ffprobeBinary string) Option {
	return func(e *Engine) {
		if v := strings.TrimSpace(ffmpegBinary); v != "" {
			e.ffmpegBinary = v
		}
		if v := strings.TrimSpace(ffprobeBinary); v != "" {
			e.ffprobeBinary = v
		}
	}
}

// WithCodecs overrides the video codec, audio codec, and encoder speed preset.
func WithCodecs(videoCodec, audioCodec, encoderPreset string) Option {
	return func(e *Engine) {
		if v := strings.TrimSpace(videoCodec); v != "" {
			e.videoCodec = v
		}
		if v := strings.TrimSpace(audioCodec); v != "" {
			e.audioCodec = v
		}
		if v := strings.TrimSpace(encoderPreset); v != "" {
			e.encoderPreset = v
		}
	}
}

// WithLogger attaches a logger for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New constructs an engine with libx264/aac defaults.
func New(opts ...Option) *Engine {
	e := &Engine{
		ffmpegBinary:  "ffmpeg",
		ffprobeBinary: "ffprobe",
		videoCodec:    "libx264",
		audioCodec:    "aac",
		encoderPreset: "veryfast",
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "ffmpeg")
	return e
}

// Probe inspects the source with ffprobe. Local sources report their on-disk
// size; remote sources report whatever size the container header declares.
func (e *Engine) Probe(ctx context.Context, src engine.Source) (engine.Metadata, error) {
	result, err := probe(ctx, e.ffprobeBinary, src.Location())
	if err != nil {
		return engine.Metadata{}, err
	}

	meta := engine.Metadata{
		SizeBytes:  result.SizeBytes(),
		FormatName: result.Format.FormatName,
	}
	if !src.IsURL() {
		info, err := os.Stat(src.Path)
		if err != nil {
			return engine.Metadata{}, fmt.Errorf("stat source: %w", err)
		}
		meta.SizeBytes = info.Size()
	}

	duration := result.DurationSeconds()
	if video, ok := result.PrimaryVideo(); ok {
		meta.HasVideo = true
		meta.Width = video.Width
		meta.Height = video.Height
		meta.VideoCodec = video.CodecName
		if d := video.DurationSeconds(); d > 0 {
			duration = d
		}
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		duration = 0
	}
	meta.DurationSeconds = duration
	return meta, nil
}

// Init validates the request and confirms the ffmpeg binary is runnable.
// No process is started until Execute.
func (e *Engine) Init(ctx context.Context, req engine.Request) (engine.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	binary, err := lookPath(e.ffmpegBinary)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg binary %q not found: %w", e.ffmpegBinary, err)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	args := buildArgs(e, req)
	e.logger.Debug("ffmpeg transcode prepared",
		logging.String("binary", binary),
		logging.String("args", strings.Join(args, " ")),
	)
	return &handle{
		binary:   binary,
		args:     args,
		output:   req.OutputPath,
		duration: req.DurationSeconds,
		feed:     engine.NewProgressFeed(),
		done:     make(chan struct{}),
		logger:   e.logger,
	}, nil
}
