package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// execer is the subset of pgxpool.Pool and pgx.Tx the batch inserts
// need, so they run on the pool or inside a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// InsertProgramDays batch-inserts program day rows. Returns count inserted.
func (db *DB) InsertProgramDays(ctx context.Context, rows []models.ProgramDay) (int64, error) {
	return insertProgramDays(ctx, db.Pool, rows)
}

func insertProgramDays(ctx context.Context, q execer, rows []models.ProgramDay) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO program_days (id, instance_id, user_id, date, week_index, day_index,
		label, template_key, intents, intensity, volume_scalar) VALUES `
	args := make([]any, 0, len(rows)*11)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 11
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
			base+7, base+8, base+9, base+10, base+11,
		))
		args = append(args, r.ID, r.InstanceID, r.UserID, r.Date, r.WeekIndex, r.DayIndex,
			r.Label, r.TemplateKey, r.Intents, r.Intensity, r.VolumeScalar)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting program days: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryProgramDays retrieves an instance's days in a date range,
// ordered chronologically.
func (db *DB) QueryProgramDays(ctx context.Context, instanceID uuid.UUID, from, to time.Time) ([]models.ProgramDay, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, instance_id, user_id, date, week_index, day_index,
		 label, template_key, intents, intensity, volume_scalar
		 FROM program_days
		 WHERE instance_id = $1 AND date >= $2 AND date < $3
		 ORDER BY date ASC`,
		instanceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying program days: %w", err)
	}
	defer rows.Close()

	var result []models.ProgramDay
	for rows.Next() {
		var d models.ProgramDay
		if err := rows.Scan(&d.ID, &d.InstanceID, &d.UserID, &d.Date, &d.WeekIndex, &d.DayIndex,
			&d.Label, &d.TemplateKey, &d.Intents, &d.Intensity, &d.VolumeScalar); err != nil {
			return nil, fmt.Errorf("scanning program day: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// GetProgramDay retrieves a single program day by ID, or nil when not found.
func (db *DB) GetProgramDay(ctx context.Context, id uuid.UUID, userID int) (*models.ProgramDay, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, instance_id, user_id, date, week_index, day_index,
		 label, template_key, intents, intensity, volume_scalar
		 FROM program_days
		 WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return nil, fmt.Errorf("querying program day: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var d models.ProgramDay
	if err := rows.Scan(&d.ID, &d.InstanceID, &d.UserID, &d.Date, &d.WeekIndex, &d.DayIndex,
		&d.Label, &d.TemplateKey, &d.Intents, &d.Intensity, &d.VolumeScalar); err != nil {
		return nil, fmt.Errorf("scanning program day: %w", err)
	}
	return &d, rows.Err()
}
