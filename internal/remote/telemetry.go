package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Telemetry is a best-effort event log. Failures never propagate to or
// block the caller; they are logged at debug and dropped.
type Telemetry struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewTelemetry creates a Telemetry sink posting to the server's events
// endpoint. A short timeout keeps it from stalling logging paths.
func NewTelemetry(baseURL, apiKey string, log *slog.Logger) *Telemetry {
	return &Telemetry{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		log:        log,
	}
}

// LogEvent sends one named event with an arbitrary payload.
func (t *Telemetry) LogEvent(ctx context.Context, name string, payload map[string]any) {
	body, err := json.Marshal(map[string]any{"name": name, "attributes": payload})
	if err != nil {
		t.log.Debug("telemetry marshal failed", "event", name, "error", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/v1/events", bytes.NewReader(body))
	if err != nil {
		t.log.Debug("telemetry request failed", "event", name, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("X-API-Key", t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.log.Debug("telemetry send failed", "event", name, "error", err)
		return
	}
	resp.Body.Close() //nolint:errcheck
}
