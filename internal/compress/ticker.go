package compress

import (
	"sync"
	"time"

	"squeeze/internal/engine"
	"squeeze/internal/events"
)

// startTelemetry refreshes telemetry every tick from the latest progress the
// handle has reported. The returned stop function blocks until the ticker
// goroutine has exited.
func (c *Controller) startTelemetry(job *Job, handle engine.Handle, start time.Time, durationSeconds float64) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(c.tickInterval)
		defer ticker.Stop()
		progress := 0.0
		for {
			select {
			case <-stop:
				return
			case <-job.ctx.Done():
				return
			case <-ticker.C:
				select {
				case p, ok := <-handle.Progress():
					if ok && p > progress {
						progress = p
					}
				default:
				}
				c.emitTelemetry(job, progress, start, durationSeconds)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
		wg.Wait()
	}
}

func (c *Controller) emitTelemetry(job *Job, progress float64, start time.Time, durationSeconds float64) {
	job.mu.Lock()
	defer job.mu.Unlock()
	if !c.publishableLocked(job) {
		return
	}
	if progress < job.progress {
		progress = job.progress
	}
	job.progress = progress
	now := c.now()
	t := ComputeTelemetry(progress, now.Sub(start), durationSeconds)
	job.telemetry = t
	c.publisher.Publish(events.Telemetry{
		JobID:      job.ID,
		Progress:   t.Progress,
		Percentage: t.Percentage,
		Elapsed:    t.Elapsed,
		Speed:      t.Speed,
		ETASeconds: t.ETASeconds,
		At:         now,
	})
}
