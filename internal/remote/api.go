// Package remote defines the remote-store contract the core depends on
// and an HTTP client implementation of it. Every call may fail with a
// transient (retryable) or permanent error; callers branch with
// IsTransient.
package remote

import (
	"context"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

// API is the remote store consumed by the core. The server's storage
// layer is the authoritative implementation; Client reaches it over
// HTTP.
type API interface {
	CreateProgramInstance(ctx context.Context, inst models.ProgramInstance) error
	CreateProgramDays(ctx context.Context, instanceID uuid.UUID, days []models.ProgramDay) error
	GetProgramDays(ctx context.Context, instanceID uuid.UUID, from, to time.Time) ([]models.ProgramDay, error)
	CreateTrainingSession(ctx context.Context, s models.TrainingSession) error
	CreateTrainingSessionItems(ctx context.Context, sessionID uuid.UUID, items []models.TrainingSessionItem) error
	UpdateTrainingSessionItem(ctx context.Context, sessionID uuid.UUID, item models.TrainingSessionItem) error
	UpsertSetLog(ctx context.Context, p models.SetLogPayload) error
	UpdateTrainingSession(ctx context.Context, p models.FinalizePayload) error
	GetExerciseBestPerformance(ctx context.Context, exerciseID string) (*models.BestPerformance, error)
}

// Probe checks reachability of the remote store. Polled, not pushed.
type Probe interface {
	IsNetworkAvailable(ctx context.Context) bool
}
