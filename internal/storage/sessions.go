package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSessionInProgress is returned when a user already has a started,
// unfinalized session.
var ErrSessionInProgress = errors.New("a session is already in progress")

// CreateTrainingSession inserts a training session row. The partial
// unique index on (user_id) WHERE ended_at IS NULL enforces the one
// active session per user rule; violations surface as
// ErrSessionInProgress.
func (db *DB) CreateTrainingSession(ctx context.Context, s models.TrainingSession) error {
	var goals []byte
	if s.GoalsSnapshot != nil {
		var err error
		goals, err = json.Marshal(s.GoalsSnapshot)
		if err != nil {
			return fmt.Errorf("marshaling goals snapshot: %w", err)
		}
	}

	_, err := db.Pool.Exec(ctx,
		`INSERT INTO training_sessions (id, user_id, mode, program_instance_id, program_day_id,
		 goals_snapshot, started_at, ended_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,NULL)
		 ON CONFLICT (id) DO NOTHING`,
		s.ID, s.UserID, s.Mode, s.ProgramInstanceID, s.ProgramDayID, goals, s.StartedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" &&
			pgErr.ConstraintName == "training_sessions_one_active_per_user" {
			return ErrSessionInProgress
		}
		return fmt.Errorf("inserting training session: %w", err)
	}
	return nil
}

// FinalizeSession marks a session ended and stores its summary. A
// replayed finalize for an already-ended session is a no-op success.
func (db *DB) FinalizeSession(ctx context.Context, p models.FinalizePayload) error {
	summary, err := json.Marshal(p.Summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	tag, err := db.Pool.Exec(ctx,
		`UPDATE training_sessions SET ended_at = $2, summary = $3
		 WHERE id = $1 AND ended_at IS NULL`,
		p.SessionID, p.EndedAt, summary)
	if err != nil {
		return fmt.Errorf("finalizing session: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// No row updated: either the session is already finalized (fine) or
	// it does not exist.
	var exists bool
	err = db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM training_sessions WHERE id = $1)`, p.SessionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking session: %w", err)
	}
	if !exists {
		return fmt.Errorf("finalizing session: session %s not found", p.SessionID)
	}
	return nil
}

// GetTrainingSession retrieves a session by ID, or nil when not found.
func (db *DB) GetTrainingSession(ctx context.Context, id uuid.UUID, userID int) (*models.TrainingSession, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, mode, program_instance_id, program_day_id,
		 goals_snapshot, started_at, ended_at, summary
		 FROM training_sessions
		 WHERE id = $1 AND user_id = $2`,
		id, userID)

	var (
		s       models.TrainingSession
		goals   []byte
		summary []byte
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Mode, &s.ProgramInstanceID, &s.ProgramDayID,
		&goals, &s.StartedAt, &s.EndedAt, &summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning training session: %w", err)
	}
	if len(goals) > 0 {
		if err := json.Unmarshal(goals, &s.GoalsSnapshot); err != nil {
			return nil, fmt.Errorf("unmarshaling goals snapshot: %w", err)
		}
	}
	if len(summary) > 0 {
		s.Summary = &models.SessionSummary{}
		if err := json.Unmarshal(summary, s.Summary); err != nil {
			return nil, fmt.Errorf("unmarshaling summary: %w", err)
		}
	}
	return &s, nil
}
