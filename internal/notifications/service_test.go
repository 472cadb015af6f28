package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mediakiller/internal/config"
	"mediakiller/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	var got captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		got.body = string(body)
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte("topic rejected"))
		}
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func serviceFor(url string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.RequestTimeoutSeconds = 5
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunStarted(context.Background(), 3); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config should be a noop, got %v", err)
	}
}

func TestNotifyRunCompletedFormats(t *testing.T) {
	tests := []struct {
		name           string
		report         notifications.RunReport
		expectTitle    string
		expectMessage  string
		expectPriority string
	}{
		{
			name:          "clean",
			report:        notifications.RunReport{Finished: 4, Elapsed: 90 * time.Second},
			expectTitle:   "mediakiller - Run Complete",
			expectMessage: "4 finished in 1m30s",
		},
		{
			name:           "failures",
			report:         notifications.RunReport{Finished: 2, Terminated: 1, Canceled: 1, Elapsed: time.Minute},
			expectTitle:    "mediakiller - Run Complete (with errors)",
			expectMessage:  "2 finished, 1 failed, 1 canceled in 1m0s",
			expectPriority: "high",
		},
		{
			name:           "abandoned",
			report:         notifications.RunReport{Finished: 1, Abandoned: true, Elapsed: 5 * time.Second},
			expectTitle:    "mediakiller - Run Abandoned",
			expectMessage:  "Stopped after 5s: 1 finished, 0 failed, 0 canceled",
			expectPriority: "high",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := newServer(t, http.StatusOK)
			if err := serviceFor(server.URL).NotifyRunCompleted(context.Background(), tc.report); err != nil {
				t.Fatalf("notify: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tc.expectTitle)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("message = %q, want %q", got.body, tc.expectMessage)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tc.expectPriority)
			}
			if !strings.HasPrefix(got.tags, "mediakiller,run") {
				t.Fatalf("tags = %q", got.tags)
			}
		})
	}
}

func TestNotifyErrorIncludesContext(t *testing.T) {
	server, got := newServer(t, http.StatusOK)
	if err := serviceFor(server.URL).NotifyError(context.Background(), errors.New("disk full"), "expand"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got.body != "Error during expand: disk full" || got.priority != "high" {
		t.Fatalf("unexpected notification %+v", *got)
	}
}

func TestSendReportsServerErrors(t *testing.T) {
	server, _ := newServer(t, http.StatusForbidden)
	err := serviceFor(server.URL).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic rejected") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
