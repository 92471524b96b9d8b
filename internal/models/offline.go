package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OpKind is the type of a queued offline mutation.
type OpKind string

const (
	OpInsertSetLog    OpKind = "insert_set_log"
	OpUpsertItem      OpKind = "upsert_item"
	OpFinalizeSession OpKind = "finalize_session"
)

// OpState is the replay state of a queued operation.
type OpState string

const (
	OpQueued          OpState = "queued"
	OpApplying        OpState = "applying"
	OpApplied         OpState = "applied"
	OpFailedRetryable OpState = "failed_retryable"
)

// OfflineOperation is one queued mutation. Operations are append-only
// and consumed strictly in enqueue order.
type OfflineOperation struct {
	ID         uuid.UUID       `json:"id"`
	Kind       OpKind          `json:"kind"`
	TargetID   string          `json:"target_id"`
	IdemKey    string          `json:"idem_key"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	State      OpState         `json:"state"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"last_error,omitempty"`
}

// SetLogPayload is the payload of an insert_set_log operation.
type SetLogPayload struct {
	SessionID     uuid.UUID    `json:"session_id"`
	SessionItemID uuid.UUID    `json:"session_item_id"`
	Set           PerformedSet `json:"set"`
}

// ItemPayload is the payload of an upsert_item operation.
type ItemPayload struct {
	SessionID uuid.UUID           `json:"session_id"`
	Item      TrainingSessionItem `json:"item"`
}

// FinalizePayload is the payload of a finalize_session operation.
type FinalizePayload struct {
	SessionID uuid.UUID      `json:"session_id"`
	EndedAt   time.Time      `json:"ended_at"`
	Summary   SessionSummary `json:"summary"`
}

// SetLogIdemKey builds the idempotency key for a set log: the logical
// identity is (session item, set index), so a retried send overwrites
// instead of duplicating.
func SetLogIdemKey(itemID uuid.UUID, setIndex int) string {
	return fmt.Sprintf("%s/%s/%d", OpInsertSetLog, itemID, setIndex)
}

// ItemIdemKey builds the idempotency key for an item upsert.
func ItemIdemKey(itemID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", OpUpsertItem, itemID)
}

// FinalizeIdemKey builds the idempotency key for a session finalize.
func FinalizeIdemKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", OpFinalizeSession, sessionID)
}
