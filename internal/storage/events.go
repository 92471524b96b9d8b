package storage

import (
	"context"
	"fmt"
)

// InsertEvent stores one client telemetry event. Attributes are
// arbitrary JSON supplied by the client.
func (db *DB) InsertEvent(ctx context.Context, userID int, name string, attributes []byte) error {
	if len(attributes) == 0 {
		attributes = []byte("{}")
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO events (user_id, name, attributes) VALUES ($1,$2,$3)`,
		userID, name, attributes)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}
