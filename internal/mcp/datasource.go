package mcp

import (
	"context"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	GetActiveProgram(ctx context.Context, userID int) (*models.ProgramInstance, error)
	GetProgramInstance(ctx context.Context, id uuid.UUID, userID int) (*models.ProgramInstance, error)
	QueryProgramDays(ctx context.Context, instanceID uuid.UUID, from, to time.Time) ([]models.ProgramDay, error)
	GetProgramDay(ctx context.Context, id uuid.UUID, userID int) (*models.ProgramDay, error)
	GetTrainingSession(ctx context.Context, id uuid.UUID, userID int) (*models.TrainingSession, error)
	QuerySessionItems(ctx context.Context, sessionID uuid.UUID) ([]models.TrainingSessionItem, error)
	GetExerciseBest(ctx context.Context, userID int, exerciseID string) (*models.BestPerformance, error)
	QueryPersonalRecords(ctx context.Context, userID int, exerciseID string) ([]models.PersonalRecord, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
