package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"squeeze/internal/compress"
	"squeeze/internal/config"
	"squeeze/internal/events"
	"squeeze/internal/logging"
	"squeeze/internal/metrics"
	"squeeze/internal/probecache"
)

// Deps are the collaborators the daemon serves.
type Deps struct {
	Controller *compress.Controller
	Bus        *events.Bus
	Metrics    *metrics.Recorder
	ProbeCache *probecache.Store
	Logger     *slog.Logger
}

// Daemon owns the HTTP API and the instance lock for a serve run.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	ctrl     *compress.Controller
	recorder *metrics.Recorder
	cache    *probecache.Store
	view     *jobView
	api      *apiServer

	lock    *InstanceLock
	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon around an existing controller.
func New(cfg *config.Config, deps Deps) (*Daemon, error) {
	if cfg == nil || deps.Controller == nil {
		return nil, errors.New("daemon requires config and controller")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		ctrl:     deps.Controller,
		recorder: deps.Metrics,
		cache:    deps.ProbeCache,
		view:     newJobView(deps.Bus),
	}
	d.api = newAPIServer(d)
	return d, nil
}

// Handler exposes the router without listening, for embedding and tests.
func (d *Daemon) Handler() http.Handler {
	return d.api.router
}

// Start acquires the instance lock and begins serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	lock, err := AcquireLock(d.cfg.LockPath())
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = lock.Release()
		return err
	}
	d.lock = lock
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("squeeze daemon started",
		logging.String("lock", lock.Path()),
		logging.String("address", d.api.addr()),
		logging.Int("pid", os.Getpid()),
	)
	return nil
}

// Addr returns the listening address once started.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Running reports whether Start succeeded and Stop has not run.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Stop cancels the active job, stops the API, removes the last upload, and
// releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.ctrl.Cancel(cancelCtx); err != nil {
		logging.WarnWithContext(d.logger, "job did not stop cleanly", "shutdown_cancel_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "an ffmpeg process may outlive the daemon"),
		)
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.api.replaceUpload("")
	if err := d.lock.Release(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.lock = nil
	d.running.Store(false)
	d.logger.Info("squeeze daemon stopped")
}

// Close stops the daemon and detaches from the bus.
func (d *Daemon) Close() error {
	d.Stop()
	d.view.close()
	return nil
}
