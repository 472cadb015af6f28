package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mediakiller/internal/config"
)

const userAgent = "mediakiller/1.0"

// RunReport summarizes an ended run.
type RunReport struct {
	Finished   int
	Terminated int
	Canceled   int
	Abandoned  bool
	Elapsed    time.Duration
}

// Service sends run notifications.
type Service interface {
	NotifyRunStarted(ctx context.Context, missions int) error
	NotifyRunCompleted(ctx context.Context, report RunReport) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed Service, or a no-op one when no topic is
// configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{endpoint: topic, client: &http.Client{Timeout: timeout}}
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

func (n *ntfyService) NotifyRunStarted(ctx context.Context, missions int) error {
	return n.send(ctx, payload{
		title:   "mediakiller - Run Started",
		message: fmt.Sprintf("Transcoding %d mission(s)", missions),
		tags:    []string{"mediakiller", "run", "started"},
	})
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, report RunReport) error {
	elapsed := max(report.Elapsed.Round(time.Second), 0)
	data := payload{
		title:   "mediakiller - Run Complete",
		message: fmt.Sprintf("%d finished in %s", report.Finished, elapsed),
		tags:    []string{"mediakiller", "run", "completed"},
	}
	switch {
	case report.Abandoned:
		data.title = "mediakiller - Run Abandoned"
		data.message = fmt.Sprintf("Stopped after %s: %d finished, %d failed, %d canceled",
			elapsed, report.Finished, report.Terminated, report.Canceled)
		data.tags = []string{"mediakiller", "run", "abandoned"}
		data.priority = "high"
	case report.Terminated > 0:
		data.title = "mediakiller - Run Complete (with errors)"
		data.message = fmt.Sprintf("%d finished, %d failed, %d canceled in %s",
			report.Finished, report.Terminated, report.Canceled, elapsed)
		data.priority = "high"
	case report.Canceled > 0:
		data.message = fmt.Sprintf("%d finished, %d canceled in %s", report.Finished, report.Canceled, elapsed)
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var b strings.Builder
	b.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		b.WriteString(" during ")
		b.WriteString(contextLabel)
	}
	b.WriteString(": ")
	if err != nil {
		b.WriteString(strings.TrimSpace(err.Error()))
	} else {
		b.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "mediakiller - Error",
		message:  b.String(),
		tags:     []string{"mediakiller", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "mediakiller - Test",
		message:  "Notification system test",
		tags:     []string{"mediakiller", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
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
	if data.priority != "" {
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

func (noopService) NotifyRunStarted(context.Context, int) error         { return nil }
func (noopService) NotifyRunCompleted(context.Context, RunReport) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error    { return nil }
func (noopService) TestNotification(context.Context) error              { return nil }
