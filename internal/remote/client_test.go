package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

// TestClientClassifiesServerErrorTransient verifies 5xx responses map
// to transient errors so the offline queue retries them.
func TestClientClassifiesServerErrorTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.CreateTrainingSession(context.Background(), models.TrainingSession{ID: uuid.New()})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsTransient(err) {
		t.Errorf("5xx should be transient, got %v", err)
	}
}

// TestClientClassifiesClientErrorPermanent verifies 4xx responses map
// to permanent errors that halt a queue drain.
func TestClientClassifiesClientErrorPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad payload", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.CreateTrainingSession(context.Background(), models.TrainingSession{ID: uuid.New()})
	if err == nil {
		t.Fatal("expected an error")
	}
	if IsTransient(err) {
		t.Errorf("4xx should be permanent, got %v", err)
	}
}

// TestClientNetworkErrorTransient verifies connection failures are
// transient.
func TestClientNetworkErrorTransient(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "")
	err := c.CreateTrainingSession(context.Background(), models.TrainingSession{ID: uuid.New()})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsTransient(err) {
		t.Errorf("network error should be transient, got %v", err)
	}
}

// TestClientRateLimitTransient verifies 429 is retryable despite being
// a 4xx status.
func TestClientRateLimitTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.CreateTrainingSession(context.Background(), models.TrainingSession{ID: uuid.New()})
	if !IsTransient(err) {
		t.Errorf("429 should be transient, got %v", err)
	}
}

// TestClientBestPerformanceNotFound verifies a 404 on best performance
// means "no history" and returns nil without error.
func TestClientBestPerformanceNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	best, err := c.GetExerciseBestPerformance(context.Background(), "barbell-bench-press")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best != nil {
		t.Errorf("got %+v, want nil for no history", best)
	}
}

// TestClientSendsAPIKey verifies the API key header accompanies
// mutating requests.
func TestClientSendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	if err := c.UpsertSetLog(context.Background(), models.SetLogPayload{
		SessionID: uuid.New(), SessionItemID: uuid.New(),
		Set: models.PerformedSet{SetIndex: 1, WeightKg: 80, Reps: 5},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "secret" {
		t.Errorf("X-API-Key = %q, want %q", gotKey, "secret")
	}
}
