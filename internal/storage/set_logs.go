package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftplan/internal/models"
)

// UpsertSetLog inserts or replaces one performed set. The primary key
// on (session_item_id, set_index) makes replays and corrections
// overwrite instead of duplicating.
func (db *DB) UpsertSetLog(ctx context.Context, p models.SetLogPayload) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO set_logs (session_item_id, set_index, weight_kg, reps, rpe, completed_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (session_item_id, set_index) DO UPDATE SET
		   weight_kg = EXCLUDED.weight_kg,
		   reps = EXCLUDED.reps,
		   rpe = EXCLUDED.rpe,
		   completed_at = EXCLUDED.completed_at`,
		p.SessionItemID, p.Set.SetIndex, p.Set.WeightKg, p.Set.Reps, p.Set.RPE, p.Set.CompletedAt)
	if err != nil {
		return fmt.Errorf("upserting set log: %w", err)
	}
	return nil
}

// GetExerciseBest computes the user's historical best per metric for
// one exercise across all logged sets. Returns nil when the exercise
// has no history.
func (db *DB) GetExerciseBest(ctx context.Context, userID int, exerciseID string) (*models.BestPerformance, error) {
	row := db.Pool.QueryRow(ctx,
		`WITH logs AS (
		   SELECT sl.weight_kg, sl.reps, si.session_id
		   FROM set_logs sl
		   JOIN session_items si ON si.id = sl.session_item_id
		   JOIN training_sessions ts ON ts.id = si.session_id
		   WHERE si.exercise_id = $1 AND ts.user_id = $2
		 )
		 SELECT
		   COUNT(*),
		   COALESCE(MAX(weight_kg), 0),
		   COALESCE(MAX(reps), 0),
		   COALESCE(MAX(weight_kg * (1 + reps / 30.0)), 0),
		   COALESCE((SELECT MAX(v) FROM (
		     SELECT SUM(weight_kg * reps) AS v FROM logs GROUP BY session_id
		   ) AS volumes), 0)
		 FROM logs`,
		exerciseID, userID)

	var (
		count int64
		best  models.BestPerformance
	)
	err := row.Scan(&count, &best.MaxWeight, &best.MaxReps, &best.MaxE1RM, &best.TotalVolume)
	if err != nil {
		return nil, fmt.Errorf("querying exercise best: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	return &best, nil
}
