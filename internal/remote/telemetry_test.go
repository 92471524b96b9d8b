package remote

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestTelemetrySendsEvent verifies the event name, attributes, and API
// key reach the server's events endpoint.
func TestTelemetrySendsEvent(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody) //nolint:errcheck
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	tel := NewTelemetry(srv.URL, "secret", slog.New(slog.NewTextHandler(io.Discard, nil)))
	tel.LogEvent(context.Background(), "session_started", map[string]any{"mode": "manual"})

	if gotPath != "/api/v1/events" {
		t.Errorf("path = %q, want /api/v1/events", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("api key = %q, want secret", gotKey)
	}
	if gotBody["name"] != "session_started" {
		t.Errorf("name = %v, want session_started", gotBody["name"])
	}
	attrs, ok := gotBody["attributes"].(map[string]any)
	if !ok || attrs["mode"] != "manual" {
		t.Errorf("attributes = %v, want mode=manual", gotBody["attributes"])
	}
}

// TestTelemetryFailureDoesNotPanic verifies a dead endpoint is swallowed.
func TestTelemetryFailureDoesNotPanic(t *testing.T) {
	tel := NewTelemetry("http://127.0.0.1:1", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	tel.LogEvent(context.Background(), "session_started", nil)
}
