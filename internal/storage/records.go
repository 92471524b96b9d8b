package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

// InsertPersonalRecords batch-inserts PR rows detected at session
// finalize. Returns count inserted; replays are absorbed by the
// (session, exercise, metric) primary key.
func (db *DB) InsertPersonalRecords(ctx context.Context, userID int, sessionID uuid.UUID, records []models.PersonalRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query := `INSERT INTO personal_records (user_id, session_id, exercise_id, metric, value, previous, achieved_at) VALUES `
	args := make([]any, 0, len(records)*7)
	valueStrings := make([]string, 0, len(records))

	for i, r := range records {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, userID, sessionID, r.ExerciseID, r.Metric, r.Value, r.Previous, r.AchievedAt)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting personal records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryPersonalRecords retrieves a user's PR history for one exercise,
// most recent first.
func (db *DB) QueryPersonalRecords(ctx context.Context, userID int, exerciseID string) ([]models.PersonalRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, metric, value, previous, achieved_at
		 FROM personal_records
		 WHERE user_id = $1 AND exercise_id = $2
		 ORDER BY achieved_at DESC`,
		userID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying personal records: %w", err)
	}
	defer rows.Close()

	var result []models.PersonalRecord
	for rows.Next() {
		var r models.PersonalRecord
		if err := rows.Scan(&r.ExerciseID, &r.Metric, &r.Value, &r.Previous, &r.AchievedAt); err != nil {
			return nil, fmt.Errorf("scanning personal record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
