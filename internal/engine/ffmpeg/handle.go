package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"squeeze/internal/engine"
	"squeeze/internal/logging"
)

const (
	stderrTailBytes = 4096
	waitDelay       = 5 * time.Second
)

var errAlreadyExecuted = errors.New("ffmpeg handle already executed")

type handle struct {
	binary   string
	args     []string
	output   string
	duration float64
	feed     *engine.ProgressFeed
	done     chan struct{}
	logger   *slog.Logger

	mu        sync.Mutex
	started   bool
	cancelled bool
	completed bool
	cancelRun context.CancelFunc
}

func (h *handle) Progress() <-chan float64 {
	return h.feed.C()
}

func (h *handle) Execute(ctx context.Context) (engine.Output, error) {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return engine.Output{}, fmt.Errorf("ffmpeg cancelled before start: %w", context.Canceled)
	}
	if h.started {
		h.mu.Unlock()
		return engine.Output{}, errAlreadyExecuted
	}
	h.started = true
	runCtx, cancel := context.WithCancel(ctx)
	h.cancelRun = cancel
	h.mu.Unlock()

	defer close(h.done)
	defer cancel()
	defer h.feed.Close()

	out, err := h.run(runCtx)
	if err != nil {
		if runCtx.Err() != nil {
			h.removeOutput()
			return engine.Output{}, fmt.Errorf("ffmpeg interrupted: %w", runCtx.Err())
		}
		return engine.Output{}, err
	}

	h.mu.Lock()
	h.completed = true
	h.mu.Unlock()
	h.feed.Publish(1)
	return out, nil
}

func (h *handle) run(ctx context.Context) (engine.Output, error) {
	cmd := commandContext(ctx, h.binary, h.args...) //nolint:gosec
	cmd.WaitDelay = waitDelay
	stderr := &tailBuffer{limit: stderrTailBytes}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return engine.Output{}, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return engine.Output{}, fmt.Errorf("start ffmpeg: %w", err)
	}

	parseErr := parseProgress(stdout, h.duration, h.feed.Publish)
	waitErr := cmd.Wait()
	if parseErr != nil {
		h.logger.Debug("ffmpeg progress stream ended early", logging.Error(parseErr))
	}
	if waitErr != nil {
		if detail := stderr.String(); detail != "" {
			return engine.Output{}, fmt.Errorf("ffmpeg exited: %w: %s", waitErr, detail)
		}
		return engine.Output{}, fmt.Errorf("ffmpeg exited: %w", waitErr)
	}

	info, err := os.Stat(h.output)
	if err != nil {
		return engine.Output{}, fmt.Errorf("ffmpeg output missing: %w", err)
	}
	if info.Size() == 0 {
		return engine.Output{}, errors.New("ffmpeg produced an empty output file")
	}
	return engine.Output{Path: h.output, SizeBytes: info.Size(), MimeType: engine.MimeTypeMP4}, nil
}

// Cancel stops a running transcode and waits for the process to exit. A
// completed transcode keeps its output.
func (h *handle) Cancel(ctx context.Context) error {
	h.mu.Lock()
	h.cancelled = true
	started := h.started
	completed := h.completed
	cancelRun := h.cancelRun
	h.mu.Unlock()

	if !started || completed {
		return nil
	}
	cancelRun()
	select {
	case <-h.done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for ffmpeg to stop: %w", ctx.Err())
	}

	h.mu.Lock()
	completed = h.completed
	h.mu.Unlock()
	if !completed {
		h.removeOutput()
	}
	return nil
}

func (h *handle) removeOutput() {
	if err := os.Remove(h.output); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(h.logger, "failed to remove partial output", "partial_output_cleanup_failed",
			logging.String("output_path", h.output),
			logging.Error(err),
			logging.String(logging.FieldImpact, "a partial file remains in the staging directory"),
		)
	}
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
