package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateProgramInstance inserts a program instance, superseding any
// prior active program for the same user in the same transaction.
func (db *DB) CreateProgramInstance(ctx context.Context, inst models.ProgramInstance) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := insertProgramInstance(ctx, tx, inst); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreateProgramWithDays inserts a program instance and all of its dated
// days in one transaction, superseding any prior active program. A
// failure on either insert rolls everything back; an instance can never
// be persisted active with zero days.
func (db *DB) CreateProgramWithDays(ctx context.Context, inst models.ProgramInstance, days []models.ProgramDay) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := insertProgramInstance(ctx, tx, inst); err != nil {
		return err
	}
	if _, err := insertProgramDays(ctx, tx, days); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// insertProgramInstance supersedes the user's active program and inserts
// the new instance on the given transaction.
func insertProgramInstance(ctx context.Context, tx pgx.Tx, inst models.ProgramInstance) error {
	snapshot, err := json.Marshal(inst.ProfileSnapshot)
	if err != nil {
		return fmt.Errorf("marshaling profile snapshot: %w", err)
	}
	plan, err := json.Marshal(inst.Plan)
	if err != nil {
		return fmt.Errorf("marshaling plan: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE program_instances SET status = $1 WHERE user_id = $2 AND status = $3`,
		models.ProgramSuperseded, inst.UserID, models.ProgramActive)
	if err != nil {
		return fmt.Errorf("superseding active program: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO program_instances (id, user_id, start_date, duration_weeks, weekdays,
		 profile_snapshot, plan, status, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (id) DO NOTHING`,
		inst.ID, inst.UserID, inst.StartDate, inst.DurationWeeks, weekdayInts(inst.Weekdays),
		snapshot, plan, inst.Status, inst.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting program instance: %w", err)
	}
	return nil
}

// GetActiveProgram returns the user's active program instance, or nil
// when no program is active.
func (db *DB) GetActiveProgram(ctx context.Context, userID int) (*models.ProgramInstance, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, start_date, duration_weeks, weekdays, profile_snapshot, plan, status, created_at
		 FROM program_instances
		 WHERE user_id = $1 AND status = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID, models.ProgramActive)

	inst, err := scanProgramInstance(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inst, err
}

// GetProgramInstance retrieves a program instance by ID, or nil when
// not found.
func (db *DB) GetProgramInstance(ctx context.Context, id uuid.UUID, userID int) (*models.ProgramInstance, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, start_date, duration_weeks, weekdays, profile_snapshot, plan, status, created_at
		 FROM program_instances
		 WHERE id = $1 AND user_id = $2`,
		id, userID)

	inst, err := scanProgramInstance(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inst, err
}

// CompleteProgram marks an active program as completed.
func (db *DB) CompleteProgram(ctx context.Context, id uuid.UUID, userID int) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE program_instances SET status = $1 WHERE id = $2 AND user_id = $3 AND status = $4`,
		models.ProgramCompleted, id, userID, models.ProgramActive)
	if err != nil {
		return fmt.Errorf("completing program: %w", err)
	}
	return nil
}

func scanProgramInstance(row pgx.Row) (*models.ProgramInstance, error) {
	var (
		inst     models.ProgramInstance
		weekdays []int
		snapshot []byte
		plan     []byte
		start    time.Time
	)
	err := row.Scan(&inst.ID, &inst.UserID, &start, &inst.DurationWeeks, &weekdays,
		&snapshot, &plan, &inst.Status, &inst.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scanning program instance: %w", err)
	}
	inst.StartDate = start
	for _, d := range weekdays {
		inst.Weekdays = append(inst.Weekdays, time.Weekday(d))
	}
	if err := json.Unmarshal(snapshot, &inst.ProfileSnapshot); err != nil {
		return nil, fmt.Errorf("unmarshaling profile snapshot: %w", err)
	}
	if err := json.Unmarshal(plan, &inst.Plan); err != nil {
		return nil, fmt.Errorf("unmarshaling plan: %w", err)
	}
	return &inst, nil
}

func weekdayInts(days []time.Weekday) []int {
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}
