// Package offline provides the durable operation queue and the replay
// engine that reconciles it against the remote store. The queue is the
// single writer of truth for pending mutations: operations are appended
// locally, survive restarts, and drain strictly in enqueue order once
// connectivity returns.
package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Queue is a SQLite-backed FIFO of offline operations. The idempotency
// key is unique: re-enqueueing the same logical operation replaces its
// payload in place, keeping the original queue position.
type Queue struct {
	db *sql.DB
}

// OpenQueue opens (or creates) the queue database at dir/queue.db.
func OpenQueue(dir string) (*Queue, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating queue dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "queue.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening queue db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS operations (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT NOT NULL,
		kind        TEXT NOT NULL,
		target_id   TEXT NOT NULL,
		idem_key    TEXT NOT NULL UNIQUE,
		payload     BLOB NOT NULL,
		enqueued_at TIMESTAMP NOT NULL,
		state       TEXT NOT NULL DEFAULT 'queued',
		attempts    INTEGER NOT NULL DEFAULT 0,
		last_error  TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("creating operations table: %w", err)
	}

	return &Queue{db: db}, nil
}

// Close closes the underlying database.
func (q *Queue) Close() error {
	return q.db.Close()
}

// Enqueue appends an operation. An operation with the same idempotency
// key replaces the existing row's payload (a later log for the same set
// index overwrites, it does not duplicate) while keeping its place in
// the queue.
func (q *Queue) Enqueue(ctx context.Context, kind models.OpKind, targetID, idemKey string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling operation payload: %w", err)
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO operations (id, kind, target_id, idem_key, payload, enqueued_at, state)
		 VALUES (?, ?, ?, ?, ?, ?, 'queued')
		 ON CONFLICT(idem_key) DO UPDATE SET
		   payload = excluded.payload,
		   enqueued_at = excluded.enqueued_at,
		   state = 'queued',
		   last_error = ''`,
		uuid.NewString(), string(kind), targetID, idemKey, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("enqueueing operation: %w", err)
	}
	return nil
}

// Size returns the number of pending operations. Safe to call while a
// drain is in progress (for an "N operations pending" badge).
func (q *Queue) Size(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting operations: %w", err)
	}
	return n, nil
}

// queuedOp is one row plus its queue position.
type queuedOp struct {
	seq int64
	op  models.OfflineOperation
}

// pending returns all operations in strict enqueue order. Rows stuck in
// 'applying' from a crashed drain are included — replay is idempotent,
// so re-applying is safe.
func (q *Queue) pending(ctx context.Context) ([]queuedOp, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT seq, id, kind, target_id, idem_key, payload, enqueued_at, state, attempts, last_error
		 FROM operations ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying operations: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []queuedOp
	for rows.Next() {
		var qo queuedOp
		var id string
		if err := rows.Scan(&qo.seq, &id, &qo.op.Kind, &qo.op.TargetID, &qo.op.IdemKey,
			&qo.op.Payload, &qo.op.EnqueuedAt, &qo.op.State, &qo.op.Attempts, &qo.op.LastError); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		qo.op.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parsing operation id: %w", err)
		}
		out = append(out, qo)
	}
	return out, rows.Err()
}

// markApplying transitions one operation to the applying state.
func (q *Queue) markApplying(ctx context.Context, seq int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE operations SET state = 'applying', attempts = attempts + 1 WHERE seq = ?`, seq)
	return err
}

// markFailed records a failure and returns the operation to a
// retryable state for the next drain.
func (q *Queue) markFailed(ctx context.Context, seq int64, cause error) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE operations SET state = 'failed_retryable', last_error = ? WHERE seq = ?`,
		cause.Error(), seq)
	return err
}

// remove deletes an operation after a confirmed successful remote
// apply. This is the only path that removes a row.
func (q *Queue) remove(ctx context.Context, seq int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM operations WHERE seq = ?`, seq)
	return err
}
