package mcp

import (
	"context"
	"testing"
	"time"
)

// TestUserIDFromContextDefault verifies the default user ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != 1 {
		t.Errorf("UserIDFromContext(empty) = %d, want 1", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	if id := UserIDFromContext(ctx); id != 42 {
		t.Errorf("UserIDFromContext = %d, want 42", id)
	}
}

// TestDefaultDateRange verifies date range defaults (the coming four
// weeks) and parsing.
func TestDefaultDateRange(t *testing.T) {
	// Both empty → today through four weeks out
	from, to, err := defaultDateRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := to.Sub(from); diff != 28*24*time.Hour {
		t.Errorf("default range = %v, want 28 days", diff)
	}

	// Explicit dates
	from, to, err = defaultDateRange("2026-09-07", "2026-10-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from.Year() != 2026 || from.Month() != 9 || from.Day() != 7 {
		t.Errorf("from = %v, want 2026-09-07", from)
	}
	if to.Month() != 10 || to.Day() != 5 {
		t.Errorf("to = %v, want 2026-10-05", to)
	}

	// RFC3339
	from, _, err = defaultDateRange("2026-09-07T06:00:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from.Hour() != 6 {
		t.Errorf("from = %v, want 06:00", from)
	}

	// Invalid
	_, _, err = defaultDateRange("not-a-date", "")
	if err == nil {
		t.Error("expected error for invalid date")
	}
}
