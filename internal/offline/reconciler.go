package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/remote"
)

// Reconciler drains the offline queue against the remote store. Draining
// is strictly FIFO across all targets: a later finalize must never apply
// before an earlier set log for the same session, so the drain never
// reorders around a stuck item.
type Reconciler struct {
	queue *Queue
	api   remote.API
	probe remote.Probe
	log   *slog.Logger
}

// NewReconciler wires a reconciler over a queue, the remote API, and a
// connectivity probe.
func NewReconciler(queue *Queue, api remote.API, probe remote.Probe, log *slog.Logger) *Reconciler {
	return &Reconciler{queue: queue, api: api, probe: probe, log: log}
}

// Sync attempts one drain pass. When the network is unavailable it does
// nothing (the queue keeps growing). Otherwise operations apply in
// enqueue order; the pass stops at the first failure. A transient
// failure returns nil (the item stays queued for the next pass); a
// permanent failure returns an error identifying the stuck operation,
// which also blocks everything behind it.
func (r *Reconciler) Sync(ctx context.Context) (applied int, err error) {
	if !r.probe.IsNetworkAvailable(ctx) {
		return 0, nil
	}

	ops, err := r.queue.pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading queue: %w", err)
	}

	for _, qo := range ops {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if err := r.queue.markApplying(ctx, qo.seq); err != nil {
			return applied, fmt.Errorf("marking operation applying: %w", err)
		}

		if err := r.apply(ctx, qo.op); err != nil {
			if markErr := r.queue.markFailed(ctx, qo.seq, err); markErr != nil {
				r.log.Error("recording operation failure", "error", markErr)
			}
			if remote.IsTransient(err) {
				r.log.Info("drain paused on transient failure",
					"kind", qo.op.Kind, "target", qo.op.TargetID, "error", err)
				return applied, nil
			}
			return applied, fmt.Errorf("operation %s (%s) failed permanently: %w",
				qo.op.ID, qo.op.Kind, err)
		}

		// Only a confirmed remote apply removes the row.
		if err := r.queue.remove(ctx, qo.seq); err != nil {
			return applied, fmt.Errorf("removing applied operation: %w", err)
		}
		applied++
	}

	if applied > 0 {
		r.log.Info("offline queue drained", "applied", applied)
	}
	return applied, nil
}

// apply dispatches one operation to the remote API. Remote endpoints
// are idempotent on the operation's logical identity, so a re-send
// after a crashed drain is a no-op or a deterministic overwrite.
func (r *Reconciler) apply(ctx context.Context, op models.OfflineOperation) error {
	switch op.Kind {
	case models.OpInsertSetLog:
		var p models.SetLogPayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return &remote.Error{Kind: remote.KindPermanent, Msg: fmt.Sprintf("decoding set log payload: %v", err)}
		}
		return r.api.UpsertSetLog(ctx, p)
	case models.OpUpsertItem:
		var p models.ItemPayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return &remote.Error{Kind: remote.KindPermanent, Msg: fmt.Sprintf("decoding item payload: %v", err)}
		}
		return r.api.UpdateTrainingSessionItem(ctx, p.SessionID, p.Item)
	case models.OpFinalizeSession:
		var p models.FinalizePayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return &remote.Error{Kind: remote.KindPermanent, Msg: fmt.Sprintf("decoding finalize payload: %v", err)}
		}
		return r.api.UpdateTrainingSession(ctx, p)
	default:
		return &remote.Error{Kind: remote.KindPermanent, Msg: fmt.Sprintf("unknown operation kind %q", op.Kind)}
	}
}
