package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

// InsertSessionItems batch-inserts session item rows with their frozen
// planned sets. Returns count inserted.
func (db *DB) InsertSessionItems(ctx context.Context, sessionID uuid.UUID, items []models.TrainingSessionItem) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	query := `INSERT INTO session_items (id, session_id, exercise_id, name, tier, planned_sets, skipped) VALUES `
	args := make([]any, 0, len(items)*7)
	valueStrings := make([]string, 0, len(items))

	for i, it := range items {
		planned, err := json.Marshal(it.PlannedSets)
		if err != nil {
			return 0, fmt.Errorf("marshaling planned sets: %w", err)
		}
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, it.ID, sessionID, it.ExerciseID, it.Name, it.Tier, planned, it.Skipped)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting session items: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpsertSessionItem inserts or updates one session item. Planned sets
// are frozen at session start, so an update only touches the mutable
// skipped flag.
func (db *DB) UpsertSessionItem(ctx context.Context, sessionID uuid.UUID, it models.TrainingSessionItem) error {
	planned, err := json.Marshal(it.PlannedSets)
	if err != nil {
		return fmt.Errorf("marshaling planned sets: %w", err)
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO session_items (id, session_id, exercise_id, name, tier, planned_sets, skipped)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO UPDATE SET skipped = EXCLUDED.skipped`,
		it.ID, sessionID, it.ExerciseID, it.Name, it.Tier, planned, it.Skipped)
	if err != nil {
		return fmt.Errorf("upserting session item: %w", err)
	}
	return nil
}

// QuerySessionItems retrieves a session's items with their performed
// sets, in insertion order.
func (db *DB) QuerySessionItems(ctx context.Context, sessionID uuid.UUID) ([]models.TrainingSessionItem, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, session_id, exercise_id, name, tier, planned_sets, skipped
		 FROM session_items
		 WHERE session_id = $1
		 ORDER BY id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session items: %w", err)
	}
	defer rows.Close()

	var items []models.TrainingSessionItem
	for rows.Next() {
		var (
			it      models.TrainingSessionItem
			planned []byte
		)
		if err := rows.Scan(&it.ID, &it.SessionID, &it.ExerciseID, &it.Name, &it.Tier, &planned, &it.Skipped); err != nil {
			return nil, fmt.Errorf("scanning session item: %w", err)
		}
		if err := json.Unmarshal(planned, &it.PlannedSets); err != nil {
			return nil, fmt.Errorf("unmarshaling planned sets: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		sets, err := db.querySetLogs(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].PerformedSets = sets
	}
	return items, nil
}

func (db *DB) querySetLogs(ctx context.Context, itemID uuid.UUID) ([]models.PerformedSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT set_index, weight_kg, reps, rpe, completed_at
		 FROM set_logs
		 WHERE session_item_id = $1
		 ORDER BY set_index ASC`,
		itemID)
	if err != nil {
		return nil, fmt.Errorf("querying set logs: %w", err)
	}
	defer rows.Close()

	var sets []models.PerformedSet
	for rows.Next() {
		var s models.PerformedSet
		if err := rows.Scan(&s.SetIndex, &s.WeightKg, &s.Reps, &s.RPE, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning set log: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}
