package offline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/remote"
)

// Recorder is the durable write path between a running session and the
// remote store. Writes go direct when the queue is empty and the remote
// accepts them; otherwise they fall back to the queue. Only when both
// the direct write and the enqueue fail does the error surface.
type Recorder struct {
	api   remote.API
	queue *Queue
	log   *slog.Logger
}

// NewRecorder wires a recorder over the remote API and the offline
// queue.
func NewRecorder(api remote.API, queue *Queue, log *slog.Logger) *Recorder {
	return &Recorder{api: api, queue: queue, log: log}
}

// RecordSessionStart creates the session and its items remotely.
// Session creation is not queueable — the in-progress guard lives on
// the server — so this call requires connectivity.
func (r *Recorder) RecordSessionStart(ctx context.Context, s models.TrainingSession, items []models.TrainingSessionItem) error {
	if err := r.api.CreateTrainingSession(ctx, s); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if err := r.api.CreateTrainingSessionItems(ctx, s.ID, items); err != nil {
		return fmt.Errorf("creating session items: %w", err)
	}
	return nil
}

// RecordSetLog records one performed set.
func (r *Recorder) RecordSetLog(ctx context.Context, p models.SetLogPayload) error {
	return r.writeThrough(ctx, models.OpInsertSetLog, p.SessionItemID.String(),
		models.SetLogIdemKey(p.SessionItemID, p.Set.SetIndex), p,
		func(ctx context.Context) error { return r.api.UpsertSetLog(ctx, p) })
}

// RecordItem records a session-item update (skip flag, performed sets).
func (r *Recorder) RecordItem(ctx context.Context, p models.ItemPayload) error {
	return r.writeThrough(ctx, models.OpUpsertItem, p.Item.ID.String(),
		models.ItemIdemKey(p.Item.ID), p,
		func(ctx context.Context) error { return r.api.UpdateTrainingSessionItem(ctx, p.SessionID, p.Item) })
}

// RecordFinalize records session completion.
func (r *Recorder) RecordFinalize(ctx context.Context, p models.FinalizePayload) error {
	return r.writeThrough(ctx, models.OpFinalizeSession, p.SessionID.String(),
		models.FinalizeIdemKey(p.SessionID), p,
		func(ctx context.Context) error { return r.api.UpdateTrainingSession(ctx, p) })
}

// writeThrough applies the ordered write-or-queue rule. When operations
// are already queued, new writes must queue behind them — applying a
// new write directly would reorder it ahead of earlier pending ones.
func (r *Recorder) writeThrough(ctx context.Context, kind models.OpKind, targetID, idemKey string, payload any, direct func(context.Context) error) error {
	// When the size check fails the queue may be non-empty, so the write
	// must not go direct: it could apply ahead of older pending ops.
	size, err := r.queue.Size(ctx)
	if err != nil {
		r.log.Warn("queue size check failed, falling back to queue", "error", err)
		size = 1
	}

	if size == 0 {
		if err := direct(ctx); err == nil {
			return nil
		} else if !remote.IsTransient(err) {
			return fmt.Errorf("remote rejected %s: %w", kind, err)
		} else {
			r.log.Info("direct write failed, falling back to queue", "kind", kind, "error", err)
		}
	}

	if err := r.queue.Enqueue(ctx, kind, targetID, idemKey, payload); err != nil {
		return fmt.Errorf("offline fallback failed for %s: %w", kind, err)
	}
	return nil
}

// BestPerformance satisfies session.BestSource via the remote API.
func (r *Recorder) BestPerformance(ctx context.Context, exerciseID string) (*models.BestPerformance, error) {
	return r.api.GetExerciseBestPerformance(ctx, exerciseID)
}
