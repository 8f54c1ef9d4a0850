package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"squeeze/internal/config"
	"squeeze/internal/events"
	"squeeze/internal/logging"
)

const userAgent = "squeeze/0.1"

// Service defines the notification surface exposed to the CLI and daemon.
type Service interface {
	NotifyJobCompleted(ctx context.Context, e events.JobCompleted) error
	NotifyJobFailed(ctx context.Context, e events.JobFailed) error
	TestNotification(ctx context.Context) error
	Enabled() bool
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Attach delivers completion and failure events from bus through svc.
// Delivery errors are logged and never reach the job.
func Attach(bus *events.Bus, svc Service, logger *slog.Logger) func() {
	if bus == nil || svc == nil || !svc.Enabled() {
		return func() {}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "notifications")
	warn := func(jobID uint64, err error) {
		logging.WarnWithContext(logger, "notification not delivered", "notify_failed",
			logging.Uint64(logging.FieldJobID, jobID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "job outcome was not pushed to ntfy"),
		)
	}
	offCompleted := bus.Subscribe(func(e events.JobCompleted) {
		if err := svc.NotifyJobCompleted(context.Background(), e); err != nil {
			warn(e.JobID, err)
		}
	})
	offFailed := bus.Subscribe(func(e events.JobFailed) {
		if err := svc.NotifyJobFailed(context.Background(), e); err != nil {
			warn(e.JobID, err)
		}
	})
	return func() {
		offCompleted()
		offFailed()
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Enabled() bool { return true }

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, e events.JobCompleted) error {
	message := fmt.Sprintf("✅ %s: %s → %s (%.1f%%) in %s",
		strings.TrimSpace(e.FileName),
		humanize.IBytes(uint64(max(e.OriginalSize, 0))),
		humanize.IBytes(uint64(max(e.CompressedSize, 0))),
		e.CompressionRatio,
		e.Elapsed.Round(time.Second),
	)
	data := payload{
		title:   "Squeeze - Compressed",
		message: message,
		tags:    []string{"squeeze", "compress", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, e events.JobFailed) error {
	var builder strings.Builder
	builder.WriteString("❌ Compression failed")
	if kind := strings.TrimSpace(e.Kind); kind != "" {
		builder.WriteString(" (")
		builder.WriteString(kind)
		builder.WriteString(")")
	}
	builder.WriteString(": ")
	if msg := strings.TrimSpace(e.Message); msg != "" {
		builder.WriteString(msg)
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Squeeze - Failed",
		message:  builder.String(),
		tags:     []string{"squeeze", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Squeeze - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"squeeze", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Enabled() bool                                                 { return false }
func (noopService) NotifyJobCompleted(context.Context, events.JobCompleted) error { return nil }
func (noopService) NotifyJobFailed(context.Context, events.JobFailed) error       { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
