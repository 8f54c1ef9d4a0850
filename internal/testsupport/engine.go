package testsupport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"squeeze/internal/engine"
)

// FakeEngine is an engine.Engine whose probe results and transcode outcomes
// are scripted by the test.
type FakeEngine struct {
	mu         sync.Mutex
	metadata   engine.Metadata
	probeErr   error
	initErr    error
	probeGate  chan struct{}
	outputSize int64
	manual     bool
	stubborn   bool
	cancelErr  error

	probeCalls int
	initCalls  int
	requests   []engine.Request
	handles    chan *FakeHandle
}

// NewFakeEngine returns an engine that probes as meta and, unless Manual is
// set, completes every transcode immediately with a 1 KiB output.
func NewFakeEngine(meta engine.Metadata) *FakeEngine {
	return &FakeEngine{
		metadata:   meta,
		outputSize: 1024,
		handles:    make(chan *FakeHandle, 16),
	}
}

// Manual makes handles block in Execute until the test calls Complete or Fail.
func (f *FakeEngine) Manual() *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manual = true
	return f
}

// IgnoreCancel makes manual handles keep executing after Cancel or context
// cancellation, until the test calls Complete or Fail.
func (f *FakeEngine) IgnoreCancel() *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manual = true
	f.stubborn = true
	return f
}

// FailProbe makes Probe return err.
func (f *FakeEngine) FailProbe(err error) *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeErr = err
	return f
}

// FailInit makes Init return err.
func (f *FakeEngine) FailInit(err error) *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initErr = err
	return f
}

// FailCancel makes every handle's Cancel return err.
func (f *FakeEngine) FailCancel(err error) *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelErr = err
	return f
}

// GateProbe makes Probe block until the returned function is called or the
// probe context ends.
func (f *FakeEngine) GateProbe() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.probeGate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// WithOutputSize sets the size of files written by completed transcodes.
func (f *FakeEngine) WithOutputSize(size int64) *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputSize = size
	return f
}

// Calls returns how many times Probe and Init ran.
func (f *FakeEngine) Calls() (probe, init int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probeCalls, f.initCalls
}

// Requests returns the requests passed to Init.
func (f *FakeEngine) Requests() []engine.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.Request(nil), f.requests...)
}

func (f *FakeEngine) Probe(ctx context.Context, _ engine.Source) (engine.Metadata, error) {
	f.mu.Lock()
	f.probeCalls++
	gate := f.probeGate
	meta, err := f.metadata, f.probeErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return engine.Metadata{}, ctx.Err()
		}
	}
	return meta, err
}

func (f *FakeEngine) Init(_ context.Context, req engine.Request) (engine.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	f.requests = append(f.requests, req)
	if f.initErr != nil {
		return nil, f.initErr
	}
	h := &FakeHandle{
		req:        req,
		feed:       engine.NewProgressFeed(),
		manual:     f.manual,
		stubborn:   f.stubborn,
		outputSize: f.outputSize,
		cancelErr:  f.cancelErr,
		outcome:    make(chan error, 1),
		executing:  make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	select {
	case f.handles <- h:
	default:
	}
	return h, nil
}

// NextHandle waits for the next handle created by Init.
func (f *FakeEngine) NextHandle(t testing.TB) *FakeHandle {
	t.Helper()
	select {
	case h := <-f.handles:
		return h
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for engine Init")
		return nil
	}
}

// FakeHandle is a scripted engine.Handle.
type FakeHandle struct {
	req        engine.Request
	feed       *engine.ProgressFeed
	manual     bool
	stubborn   bool
	outputSize int64
	cancelErr  error
	outcome    chan error
	executing  chan struct{}
	stopped    chan struct{}

	mu          sync.Mutex
	execOnce    sync.Once
	stopOnce    sync.Once
	cancelCalls int
}

// Request returns the request the handle was created with.
func (h *FakeHandle) Request() engine.Request { return h.req }

func (h *FakeHandle) Progress() <-chan float64 { return h.feed.C() }

// Report publishes a progress fraction as the engine would.
func (h *FakeHandle) Report(p float64) { h.feed.Publish(p) }

// Complete lets a manual Execute finish successfully.
func (h *FakeHandle) Complete() {
	select {
	case h.outcome <- nil:
	default:
	}
}

// Fail lets a manual Execute finish with err.
func (h *FakeHandle) Fail(err error) {
	select {
	case h.outcome <- err:
	default:
	}
}

// WaitExecuting blocks until Execute has been entered.
func (h *FakeHandle) WaitExecuting(t testing.TB) {
	t.Helper()
	select {
	case <-h.executing:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for Execute")
	}
}

// CancelCalls returns how many times Cancel ran.
func (h *FakeHandle) CancelCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelCalls
}

func (h *FakeHandle) Execute(ctx context.Context) (engine.Output, error) {
	h.execOnce.Do(func() { close(h.executing) })
	if h.stubborn {
		if err := <-h.outcome; err != nil {
			return engine.Output{}, err
		}
	} else if h.manual {
		select {
		case err := <-h.outcome:
			if err != nil {
				return engine.Output{}, err
			}
		case <-h.stopped:
			return engine.Output{}, fmt.Errorf("fake transcode stopped: %w", context.Canceled)
		case <-ctx.Done():
			return engine.Output{}, ctx.Err()
		}
	}
	if err := writeFiller(h.req.OutputPath, h.outputSize); err != nil {
		return engine.Output{}, errors.Join(errors.New("fake output"), err)
	}
	h.feed.Publish(1)
	return engine.Output{Path: h.req.OutputPath, SizeBytes: h.outputSize, MimeType: engine.MimeTypeMP4}, nil
}

func (h *FakeHandle) Cancel(context.Context) error {
	h.mu.Lock()
	h.cancelCalls++
	h.mu.Unlock()
	h.stopOnce.Do(func() { close(h.stopped) })
	return h.cancelErr
}
