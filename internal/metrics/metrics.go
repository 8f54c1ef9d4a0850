package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"squeeze/internal/compress"
	"squeeze/internal/events"
)

const namespace = "squeeze"

// Recorder translates job events into Prometheus metrics.
type Recorder struct {
	registry *prometheus.Registry
	handler  http.Handler

	jobsStarted      prometheus.Counter
	jobsFinished     *prometheus.CounterVec
	jobsFailed       *prometheus.CounterVec
	jobDuration      prometheus.Histogram
	compressionRatio prometheus.Histogram
	speed            prometheus.Gauge
	activeJobs       prometheus.Gauge

	mu     sync.Mutex
	active map[uint64]struct{}
}

// New registers job metrics plus the Go runtime and process collectors on a
// fresh registry.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		jobsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "started_total",
			Help:      "Compression jobs that began validation",
		}),
		jobsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "finished_total",
			Help:      "Compression jobs that reached a terminal state",
		}, []string{"state"}),
		jobsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "failed_total",
			Help:      "Failed compression jobs by failure kind",
		}, []string{"kind"}),
		jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "transcode_duration_seconds",
			Help:      "Wall time of successful transcodes",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		}),
		compressionRatio: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "compression_ratio_percent",
			Help:      "Compressed size as a percentage of the original",
			Buckets:   []float64{5, 10, 25, 50, 75, 100, 150},
		}),
		speed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ffmpeg",
			Name:      "processing_speed",
			Help:      "Latest transcode speed multiplier",
		}),
		activeJobs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "active",
			Help:      "Jobs currently between validation and a terminal state",
		}),
		active: make(map[uint64]struct{}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return r.handler
}

// Attach subscribes the recorder to bus and returns an unsubscribe func.
func (r *Recorder) Attach(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(r.OnStateChanged),
		bus.Subscribe(r.OnTelemetry),
		bus.Subscribe(r.OnCompleted),
		bus.Subscribe(r.OnFailed),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (r *Recorder) OnStateChanged(e events.JobStateChanged) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := compress.State(e.State)
	switch {
	case state == compress.StateValidating:
		if _, seen := r.active[e.JobID]; !seen {
			r.active[e.JobID] = struct{}{}
			r.jobsStarted.Inc()
		}
	case state.Terminal():
		r.jobsFinished.WithLabelValues(e.State).Inc()
		delete(r.active, e.JobID)
		r.speed.Set(0)
	}
	r.activeJobs.Set(float64(len(r.active)))
}

func (r *Recorder) OnTelemetry(e events.Telemetry) {
	if e.Speed != nil {
		r.speed.Set(*e.Speed)
	}
}

func (r *Recorder) OnCompleted(e events.JobCompleted) {
	r.jobDuration.Observe(e.Elapsed.Seconds())
	r.compressionRatio.Observe(e.CompressionRatio)
}

func (r *Recorder) OnFailed(e events.JobFailed) {
	r.jobsFailed.WithLabelValues(e.Kind).Inc()
}
