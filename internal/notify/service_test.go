package notify_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/notify"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notify.NewService(&cfg)
	if err := svc.NotifySyncCompleted(context.Background(), 3, 0, time.Second); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsMessages(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(notify.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "sync started",
			notify: func(svc notify.Service) error {
				return svc.NotifySyncStarted(context.Background(), 4)
			},
			expectTitle:   "FieldSync - Sync Started",
			expectMessage: "Replaying 4 queued operations",
			expectTags:    "fieldsync,sync,started",
		},
		{
			name: "sync completed clean",
			notify: func(svc notify.Service) error {
				return svc.NotifySyncCompleted(context.Background(), 4, 0, 90*time.Second)
			},
			expectTitle:   "FieldSync - Sync Complete",
			expectMessage: "Sync complete: 4 operations replayed in 1m30s",
			expectTags:    "fieldsync,sync,completed",
		},
		{
			name: "sync completed with failures",
			notify: func(svc notify.Service) error {
				return svc.NotifySyncCompleted(context.Background(), 2, 1, 0)
			},
			expectTitle:   "FieldSync - Sync Complete (with errors)",
			expectMessage: "Sync complete: 2 replayed, 1 still queued after 0s",
			expectTags:    "fieldsync,sync,completed",
		},
		{
			name: "authentication required",
			notify: func(svc notify.Service) error {
				return svc.NotifyAuthenticationRequired(context.Background())
			},
			expectTitle:    "FieldSync - Sign In Required",
			expectMessage:  "Queued operations are waiting but the session is not authenticated",
			expectTags:     "fieldsync,auth,alert",
			expectPriority: "high",
		},
		{
			name: "error",
			notify: func(svc notify.Service) error {
				return svc.NotifyError(context.Background(), errors.New("connection reset"), "sync pass")
			},
			expectTitle:    "FieldSync - Error",
			expectMessage:  "Error with sync pass: connection reset",
			expectTags:     "fieldsync,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notify.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notify.NewService(&cfg)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
