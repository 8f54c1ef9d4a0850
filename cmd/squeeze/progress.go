package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"squeeze/internal/compress"
	"squeeze/internal/events"
	"squeeze/internal/logging"
)

// progressRenderer turns bus events into terminal feedback: a live bar when
// w is a terminal, sampled log lines otherwise. Events arriving after finish
// are dropped since delivery is asynchronous.
type progressRenderer struct {
	mu       sync.Mutex
	w        io.Writer
	logger   *slog.Logger
	bar      *progressbar.ProgressBar
	sampler  *logging.ProgressSampler
	state    string
	finished bool
}

func newProgressRenderer(w io.Writer, logger *slog.Logger) *progressRenderer {
	r := &progressRenderer{w: w, logger: logger}
	if file, ok := w.(*os.File); ok && isTerminal(file) {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(string(compress.StateIdle)),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		r.sampler = logging.NewProgressSampler(10)
	}
	return r
}

func (r *progressRenderer) attach(bus *events.Bus) func() {
	offState := bus.Subscribe(r.onStateChanged)
	offTelemetry := bus.Subscribe(r.onTelemetry)
	return func() {
		offState()
		offTelemetry()
	}
}

func (r *progressRenderer) onStateChanged(e events.JobStateChanged) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.state = e.State
	if r.bar != nil {
		r.bar.Describe(e.State)
		return
	}
	if r.sampler.ShouldLog(-1, e.State) {
		r.logger.Info("compression state",
			logging.Uint64(logging.FieldJobID, e.JobID),
			logging.String(logging.FieldStage, e.State),
		)
	}
}

func (r *progressRenderer) onTelemetry(e events.Telemetry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	speed := compress.FormatSpeed(e.Speed)
	eta := compress.FormatETA(e.ETASeconds)
	if r.bar != nil {
		r.bar.Describe(fmt.Sprintf("%s %s eta %s", r.state, speed, eta))
		_ = r.bar.Set(e.Percentage)
		return
	}
	if r.sampler.ShouldLog(float64(e.Percentage), r.state) {
		r.logger.Info("compression progress",
			logging.Uint64(logging.FieldJobID, e.JobID),
			logging.Int(logging.FieldProgressPercent, e.Percentage),
			logging.String("speed", speed),
			logging.String("eta", eta),
		)
	}
}

// finish stops rendering and settles the bar on the job's final state.
func (r *progressRenderer) finish(snap compress.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.finished = true
	if r.bar == nil {
		return
	}
	r.bar.Describe(string(snap.State))
	if snap.State == compress.StateCompleted {
		_ = r.bar.Set(100)
		_ = r.bar.Finish()
	}
	fmt.Fprintln(r.w)
}
