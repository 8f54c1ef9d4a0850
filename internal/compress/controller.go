package compress

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"squeeze/internal/budget"
	"squeeze/internal/engine"
	"squeeze/internal/events"
	"squeeze/internal/logging"
	"squeeze/internal/services"
)

const (
	// DefaultTickInterval refreshes telemetry at 30 Hz.
	DefaultTickInterval = time.Second / 30

	// OutputWidth and OutputFrameRate are fixed for every transcode.
	OutputWidth     = 1280
	OutputFrameRate = 24.0
)

// Publisher receives job notifications.
type Publisher interface {
	Publish(events.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

// Option configures a Controller.
type Option func(*Controller)

// WithPublisher routes job notifications to p.
func WithPublisher(p Publisher) Option {
	return func(c *Controller) {
		if p != nil {
			c.publisher = p
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStagingDir sets where transcodes write their output.
func WithStagingDir(dir string) Option {
	return func(c *Controller) {
		if strings.TrimSpace(dir) != "" {
			c.stagingDir = dir
		}
	}
}

// WithDefaultPreset selects the preset used when Start receives none.
func WithDefaultPreset(id budget.PresetID) Option {
	return func(c *Controller) {
		if id != "" {
			c.defaultPreset = id
		}
	}
}

// WithKeepStaging keeps the previous result file when a new job starts.
func WithKeepStaging(keep bool) Option {
	return func(c *Controller) {
		c.keepStaging = keep
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTickInterval overrides the telemetry refresh interval.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.tickInterval = d
		}
	}
}

// Controller owns at most one active job.
type Controller struct {
	engine        engine.Engine
	publisher     Publisher
	logger        *slog.Logger
	stagingDir    string
	defaultPreset budget.PresetID
	keepStaging   bool
	now           func() time.Time
	tickInterval  time.Duration

	// mu serializes Start and Cancel.
	mu     sync.Mutex
	nextID uint64

	// stateMu guards current and result. Lock order is job.mu then stateMu.
	stateMu sync.RWMutex
	current *Job
	result  *Result
}

// NewController constructs a controller around eng.
func NewController(eng engine.Engine, opts ...Option) *Controller {
	c := &Controller{
		engine:        eng,
		publisher:     nopPublisher{},
		logger:        logging.NewNop(),
		stagingDir:    os.TempDir(),
		defaultPreset: budget.DefaultPreset,
		now:           time.Now,
		tickInterval:  DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "compress")
	return c
}

// Start cancels any active job, waits for the engine to acknowledge, clears
// the previous result, and launches a new job for src. An empty presetID
// selects the configured default. Only an unknown preset or an expired ctx
// makes Start return an error; every other failure is reported through the
// job's Failed state.
func (c *Controller) Start(ctx context.Context, src engine.Source, presetID string) (*Job, error) {
	id := c.defaultPreset
	if strings.TrimSpace(presetID) != "" {
		parsed, err := budget.ParsePresetID(presetID)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "start", "parse preset", "", err)
		}
		id = parsed
	}
	preset, err := budget.Lookup(id)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "start", "lookup preset", "", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev := c.currentJob(); prev != nil {
		if err := c.cancelJob(ctx, prev); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			logging.WarnWithContext(c.logger, "previous job reported a cancellation error", "cancel_inconsistent",
				logging.Uint64(logging.FieldJobID, prev.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "new job starts anyway"),
			)
		}
	}
	c.clearResult()

	c.nextID++
	token := uuid.NewString()
	jobCtx, cancel := context.WithCancel(services.WithJobID(context.WithoutCancel(ctx), c.nextID))
	job := &Job{
		ID:        c.nextID,
		Token:     token,
		Source:    src,
		Preset:    preset,
		CreatedAt: c.now(),
		ctx:       jobCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StateIdle,
	}

	c.stateMu.Lock()
	c.current = job
	c.stateMu.Unlock()

	c.logger.Info("job started",
		logging.Uint64(logging.FieldJobID, job.ID),
		logging.String("source", src.Name()),
		logging.String("preset", string(preset.ID)),
	)
	go c.run(job)
	return job, nil
}

// Cancel stops the active job and waits for the engine to acknowledge. It is
// a no-op without an active job. A non-nil error wraps
// services.ErrCancellation when the engine reported trouble while stopping,
// or is ctx's error when the wait was abandoned.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	job := c.currentJob()
	if job == nil {
		return nil
	}
	return c.cancelJob(ctx, job)
}

// Current returns the most recent job, or nil before the first Start.
func (c *Controller) Current() *Job {
	return c.currentJob()
}

// Result returns the most recent completed job's result. Starting a new job
// clears it.
func (c *Controller) Result() (Result, bool) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if c.result == nil {
		return Result{}, false
	}
	return *c.result, true
}

func (c *Controller) currentJob() *Job {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.current
}

func (c *Controller) isCurrent(job *Job) bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.current == job
}

// cancelJob marks job cancelled, stops the engine, and waits for the run
// goroutine to exit. If ctx ends first the Cancelled event is published once
// the goroutine does exit. Callers hold c.mu.
func (c *Controller) cancelJob(ctx context.Context, job *Job) error {
	job.mu.Lock()
	if job.state.Terminal() {
		job.mu.Unlock()
		return nil
	}
	previous := job.state
	job.cancelled = true
	job.state = StateCancelled
	handle := job.handle
	job.mu.Unlock()

	job.cancel()

	var cancelErr error
	if handle != nil {
		if err := handle.Cancel(ctx); err != nil {
			cancelErr = services.Wrap(services.ErrCancellation, string(previous), "engine cancel", "", err)
		}
	}

	select {
	case <-job.done:
	case <-ctx.Done():
		go func() {
			<-job.done
			c.publishCancelled(job, previous)
		}()
		return ctx.Err()
	}

	c.publishCancelled(job, previous)
	return cancelErr
}

func (c *Controller) publishCancelled(job *Job, previous State) {
	c.publisher.Publish(events.JobStateChanged{
		JobID:    job.ID,
		Token:    job.Token,
		Source:   job.Source.Name(),
		Preset:   string(job.Preset.ID),
		Previous: string(previous),
		State:    string(StateCancelled),
		At:       c.now(),
	})
	c.logger.Info("job cancelled",
		logging.Uint64(logging.FieldJobID, job.ID),
		logging.String("previous_state", string(previous)),
	)
}

func (c *Controller) clearResult() {
	c.stateMu.Lock()
	prev := c.result
	c.result = nil
	c.stateMu.Unlock()

	if prev == nil || c.keepStaging || prev.Path == "" {
		return
	}
	if err := os.Remove(prev.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(c.logger, "failed to remove previous result", "staging_cleanup_failed",
			logging.String("result_path", prev.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale output remains in staging"),
		)
	}
}
