package compress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"squeeze/internal/budget"
	"squeeze/internal/engine"
	"squeeze/internal/events"
	"squeeze/internal/logging"
	"squeeze/internal/services"
)

// run drives one job to a terminal state. It never returns an error; every
// failure is classified and published.
func (c *Controller) run(job *Job) {
	defer close(job.done)
	defer job.cancel()

	ctx := job.ctx
	logger := logging.WithContext(ctx, c.logger)

	if !c.transition(job, StateValidating) {
		return
	}
	if ext := job.Source.Extension(); !IsSupportedExtension(ext) {
		c.fail(job, nil, services.Wrap(services.ErrUnsupportedFormat, string(StateValidating), "check extension",
			fmt.Sprintf("unsupported file format %q (use one of %s)", ext, strings.Join(supportedExtensions, ", ")), nil))
		return
	}

	if !c.transition(job, StateResolving) {
		return
	}
	meta, err := c.engine.Probe(ctx, job.Source)
	if err != nil {
		c.fail(job, nil, services.Wrap(services.ErrMetadata, string(StateResolving), "probe source", "", err))
		return
	}
	if err := checkMetadata(meta); err != nil {
		c.fail(job, nil, err)
		return
	}
	plan, err := budget.CalculateFor(job.Preset, meta.DurationSeconds)
	if err != nil {
		marker := services.ErrMetadata
		if errors.Is(err, budget.ErrBudgetInfeasible) {
			marker = services.ErrBudgetInfeasible
		}
		c.fail(job, nil, services.Wrap(marker, string(StateResolving), "plan bitrates", "", err))
		return
	}
	job.mu.Lock()
	job.metadata = meta
	job.plan = plan
	job.mu.Unlock()
	logger.Info("bitrate plan ready",
		logging.Float64("duration_seconds", meta.DurationSeconds),
		logging.String("resolution", meta.Resolution()),
		logging.Int64("original_size_bytes", meta.SizeBytes),
		logging.Int64("video_bitrate", plan.VideoBitrate),
		logging.Int64("audio_bitrate", plan.AudioBitrate),
		logging.Bool("clamped", plan.Clamped),
	)

	if !c.transition(job, StateInitializing) {
		return
	}
	req := engine.Request{
		Source:          job.Source,
		OutputPath:      filepath.Join(c.stagingDir, "squeeze-"+job.Token+".mp4"),
		OutputContainer: engine.ContainerMP4,
		DurationSeconds: meta.DurationSeconds,
		Video:           engine.VideoSettings{Width: OutputWidth, Bitrate: plan.VideoBitrate, FrameRate: OutputFrameRate},
		Audio:           engine.AudioSettings{Bitrate: plan.AudioBitrate},
	}
	handle, err := c.engine.Init(ctx, req)
	if err != nil {
		c.fail(job, nil, services.Wrap(services.ErrEngineInit, string(StateInitializing), "init engine", "", err))
		return
	}
	if !c.attachHandle(job, handle) {
		c.releaseHandle(logger, handle)
		return
	}

	if !c.transition(job, StateExecuting) {
		return
	}
	start := c.now()
	job.mu.Lock()
	job.execStart = start
	job.mu.Unlock()

	stopTicker := c.startTelemetry(job, handle, start, meta.DurationSeconds)
	out, err := handle.Execute(ctx)
	stopTicker()
	if err != nil {
		c.fail(job, handle, services.Wrap(services.ErrEngineExecution, string(StateExecuting), "execute transcode", "", err))
		return
	}

	c.emitTelemetry(job, 1, start, meta.DurationSeconds)
	now := c.now()
	c.complete(job, newResult(job.ID, meta.SizeBytes, out, now.Sub(start), now))
}

func checkMetadata(meta engine.Metadata) error {
	const stage = string(StateResolving)
	switch {
	case !meta.HasVideo:
		return services.Wrap(services.ErrMetadata, stage, "resolve metadata", "source has no video track", nil)
	case math.IsNaN(meta.DurationSeconds) || math.IsInf(meta.DurationSeconds, 0) || meta.DurationSeconds <= 0:
		return services.Wrap(services.ErrMetadata, stage, "resolve metadata", "duration could not be determined", nil)
	case meta.SizeBytes <= 0:
		return services.Wrap(services.ErrMetadata, stage, "resolve metadata", "source size could not be determined", nil)
	default:
		return nil
	}
}

// transition moves job to next and publishes the change. It returns false
// once the job has been cancelled or superseded.
func (c *Controller) transition(job *Job, next State) bool {
	job.mu.Lock()
	defer job.mu.Unlock()
	if !c.publishableLocked(job) {
		return false
	}
	previous := job.state
	job.state = next
	c.publisher.Publish(events.JobStateChanged{
		JobID:    job.ID,
		Token:    job.Token,
		Source:   job.Source.Name(),
		Preset:   string(job.Preset.ID),
		Previous: string(previous),
		State:    string(next),
		At:       c.now(),
	})
	c.logger.Debug("job state changed",
		logging.Uint64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldStage, string(next)),
	)
	return true
}

// publishableLocked reports whether job may still publish. Callers hold job.mu.
func (c *Controller) publishableLocked(job *Job) bool {
	return !job.cancelled && !job.state.Terminal() && c.isCurrent(job)
}

func (c *Controller) attachHandle(job *Job, handle engine.Handle) bool {
	job.mu.Lock()
	defer job.mu.Unlock()
	if !c.publishableLocked(job) {
		return false
	}
	job.handle = handle
	return true
}

// releaseHandle cancels a handle the job no longer wants. Errors are logged
// and swallowed.
func (c *Controller) releaseHandle(logger *slog.Logger, handle engine.Handle) {
	if handle == nil {
		return
	}
	if err := handle.Cancel(context.Background()); err != nil {
		logging.WarnWithContext(logger, "engine cancel failed during cleanup", "engine_cancel_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "engine resources may linger until the process exits"),
		)
	}
}

func (c *Controller) fail(job *Job, handle engine.Handle, err error) {
	logger := logging.WithContext(job.ctx, c.logger)
	c.releaseHandle(logger, handle)

	job.mu.Lock()
	defer job.mu.Unlock()
	if !c.publishableLocked(job) {
		return
	}
	kind := services.Kind(err)
	failure := &Failure{Kind: kind, Message: err.Error()}
	previous := job.state
	job.state = StateFailed
	job.failure = failure

	now := c.now()
	c.publisher.Publish(events.JobStateChanged{
		JobID:    job.ID,
		Token:    job.Token,
		Source:   job.Source.Name(),
		Preset:   string(job.Preset.ID),
		Previous: string(previous),
		State:    string(StateFailed),
		At:       now,
	})
	c.publisher.Publish(events.JobFailed{
		JobID:   job.ID,
		Kind:    kind,
		Message: failure.Message,
		Elapsed: now.Sub(job.CreatedAt),
		At:      now,
	})
	logging.ErrorWithContext(logger, "job failed", "job_failed",
		logging.String(logging.FieldErrorKind, kind),
		logging.String(logging.FieldStage, string(previous)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(kind)),
	)
}

func (c *Controller) complete(job *Job, result Result) {
	job.mu.Lock()
	defer job.mu.Unlock()
	if !c.publishableLocked(job) {
		return
	}
	previous := job.state
	job.state = StateCompleted
	job.result = &result

	c.stateMu.Lock()
	stored := result
	c.result = &stored
	c.stateMu.Unlock()

	c.publisher.Publish(events.JobStateChanged{
		JobID:    job.ID,
		Token:    job.Token,
		Source:   job.Source.Name(),
		Preset:   string(job.Preset.ID),
		Previous: string(previous),
		State:    string(StateCompleted),
		At:       result.CompletedAt,
	})
	c.publisher.Publish(events.JobCompleted{
		JobID:            job.ID,
		Path:             result.Path,
		FileName:         result.FileName,
		MimeType:         result.MimeType,
		OriginalSize:     result.OriginalSize,
		CompressedSize:   result.CompressedSize,
		CompressionRatio: result.CompressionRatio,
		BytesSaved:       result.BytesSaved,
		Elapsed:          result.Elapsed,
		At:               result.CompletedAt,
	})
	attrs := []logging.Attr{
		logging.String(logging.FieldStage, string(StateCompleted)),
		logging.Int64("original_size_bytes", result.OriginalSize),
		logging.Int64("compressed_size_bytes", result.CompressedSize),
		logging.String("compression_ratio", fmt.Sprintf("%.1f%%", result.CompressionRatio)),
		logging.Int64("bytes_saved", result.BytesSaved),
		logging.Duration("elapsed", result.Elapsed),
	}
	if result.BytesSaved < 0 {
		attrs = append(attrs, logging.Alert("output_larger_than_source"))
	}
	logging.WithContext(job.ctx, c.logger).Info("job completed", logging.Args(attrs...)...)
}

func hintFor(kind string) string {
	switch kind {
	case services.KindUnsupportedFormat:
		return "convert the source to one of the supported containers first"
	case services.KindMetadata:
		return "run `squeeze probe` on the source to inspect what ffprobe reports"
	case services.KindBudgetInfeasible:
		return "pick a larger preset or trim the source"
	case services.KindEngineInit:
		return "run `squeeze deps` to verify ffmpeg is installed"
	case services.KindEngineExecution:
		return "rerun with logging.level = \"debug\" to see the ffmpeg command"
	default:
		return "check logs for details"
	}
}
