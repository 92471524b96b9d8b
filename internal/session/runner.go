package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftplan/internal/catalog"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/progression"
	"github.com/google/uuid"
)

// ErrSessionInProgress is returned when a session start is attempted
// while another session is started but not yet ended. Callers must
// resume or finalize the existing session first.
var ErrSessionInProgress = errors.New("session: another session is in progress")

// ErrNoSession is returned for operations that need a running session.
var ErrNoSession = errors.New("session: no session in progress")

// ErrAlreadyFinalized is returned when finalize is called twice; the
// summary is computed exactly once.
var ErrAlreadyFinalized = errors.New("session: already finalized")

// Recorder durably records session mutations. The offline recorder
// implementation writes through to the remote store or falls back to the
// operation queue.
type Recorder interface {
	RecordSessionStart(ctx context.Context, s models.TrainingSession, items []models.TrainingSessionItem) error
	RecordSetLog(ctx context.Context, p models.SetLogPayload) error
	RecordItem(ctx context.Context, p models.ItemPayload) error
	RecordFinalize(ctx context.Context, p models.FinalizePayload) error
}

// BestSource provides historical best performance for PR detection.
type BestSource interface {
	BestPerformance(ctx context.Context, exerciseID string) (*models.BestPerformance, error)
}

// Runner owns one in-progress training session: the check-before-start
// guard, the frozen planned sets, set logging with autoregulation, the
// elapsed-time tick, and one-shot summary computation.
type Runner struct {
	rec     Recorder
	best    BestSource
	catalog *catalog.Catalog
	log     *slog.Logger
	now     func() time.Time

	mu         sync.Mutex
	session    *models.TrainingSession
	items      []models.TrainingSessionItem
	elapsed    time.Duration
	cancelTick context.CancelFunc
}

// NewRunner creates a Runner. now may be nil (defaults to time.Now);
// tests inject a fixed clock.
func NewRunner(rec Recorder, best BestSource, cat *catalog.Catalog, log *slog.Logger, now func() time.Time) *Runner {
	if now == nil {
		now = time.Now
	}
	return &Runner{rec: rec, best: best, catalog: cat, log: log, now: now}
}

// Start confirms a SessionPlan into a TrainingSession. Planned sets are
// frozen verbatim into the session items; profile edits after this point
// cannot alter them. Starting while another session is in progress
// returns ErrSessionInProgress.
func (r *Runner) Start(ctx context.Context, userID int, mode models.SessionMode, plan models.SessionPlan, instanceID *uuid.UUID) (*models.TrainingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil && r.session.EndedAt == nil {
		return nil, ErrSessionInProgress
	}

	s := &models.TrainingSession{
		ID:                uuid.New(),
		UserID:            userID,
		Mode:              mode,
		ProgramInstanceID: instanceID,
		ProgramDayID:      plan.ProgramDayID,
		GoalsSnapshot:     plan.Trace.GoalBias,
		StartedAt:         r.now(),
	}

	items := make([]models.TrainingSessionItem, 0, len(plan.Exercises))
	for _, ex := range plan.Exercises {
		items = append(items, models.TrainingSessionItem{
			ID:          uuid.New(),
			SessionID:   s.ID,
			ExerciseID:  ex.ExerciseID,
			Name:        ex.Name,
			Tier:        ex.Tier,
			PlannedSets: append([]models.PlannedSet(nil), ex.Sets...),
		})
	}

	if err := r.rec.RecordSessionStart(ctx, *s, items); err != nil {
		return nil, fmt.Errorf("recording session start: %w", err)
	}

	r.session = s
	r.items = items
	r.elapsed = 0

	if mode == models.ModeTimed {
		tickCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		r.cancelTick = cancel
		go r.tick(tickCtx)
	}
	return s, nil
}

// Resume adopts an existing in-progress session instead of starting a
// new one.
func (r *Runner) Resume(s models.TrainingSession, items []models.TrainingSessionItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil && r.session.EndedAt == nil {
		return ErrSessionInProgress
	}
	if s.EndedAt != nil {
		return fmt.Errorf("session: cannot resume an ended session")
	}
	r.session = &s
	r.items = items
	r.elapsed = r.now().Sub(s.StartedAt)
	return nil
}

// tick advances the elapsed counter once per second until cancelled.
// The ticker never outlives the owning session.
func (r *Runner) tick(ctx context.Context) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.mu.Lock()
			if r.session != nil {
				r.elapsed = r.now().Sub(r.session.StartedAt)
			}
			r.mu.Unlock()
		}
	}
}

// Elapsed returns the session's elapsed time.
func (r *Runner) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0
	}
	return r.now().Sub(r.session.StartedAt)
}

// InProgress reports whether a session is started and not ended.
func (r *Runner) InProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil && r.session.EndedAt == nil
}

// Items returns a copy of the session items.
func (r *Runner) Items() []models.TrainingSessionItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.TrainingSessionItem, len(r.items))
	copy(out, r.items)
	return out
}

// LogSet records a performed set. A second log for the same set index
// replaces the first. Returns the autoregulation adjustment for the next
// pending set, when one applies.
func (r *Runner) LogSet(ctx context.Context, itemID uuid.UUID, set models.PerformedSet) (*Adjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil || r.session.EndedAt != nil {
		return nil, ErrNoSession
	}
	idx := r.itemIndex(itemID)
	if idx < 0 {
		return nil, fmt.Errorf("session: unknown item %s", itemID)
	}
	if set.CompletedAt.IsZero() {
		set.CompletedAt = r.now()
	}

	item := &r.items[idx]
	replaced := false
	for i, s := range item.PerformedSets {
		if s.SetIndex == set.SetIndex {
			item.PerformedSets[i] = set
			replaced = true
			break
		}
	}
	if !replaced {
		item.PerformedSets = append(item.PerformedSets, set)
	}

	if err := r.rec.RecordSetLog(ctx, models.SetLogPayload{
		SessionID:     r.session.ID,
		SessionItemID: item.ID,
		Set:           set,
	}); err != nil {
		return nil, fmt.Errorf("recording set log: %w", err)
	}

	class := models.ClassBarbell
	if ex, ok := r.catalog.ByID(item.ExerciseID); ok {
		class = ex.Class
	}
	return Advise(*item, set, class), nil
}

// SkipItem marks an exercise as skipped.
func (r *Runner) SkipItem(ctx context.Context, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil || r.session.EndedAt != nil {
		return ErrNoSession
	}
	idx := r.itemIndex(itemID)
	if idx < 0 {
		return fmt.Errorf("session: unknown item %s", itemID)
	}
	r.items[idx].Skipped = true
	return r.rec.RecordItem(ctx, models.ItemPayload{
		SessionID: r.session.ID,
		Item:      r.items[idx],
	})
}

// Finalize ends the session, cancels the tick timer, and computes the
// summary exactly once. PR detection failures for one exercise are
// logged and skipped; they never abort the summary for the rest.
func (r *Runner) Finalize(ctx context.Context) (*models.SessionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return nil, ErrNoSession
	}
	if r.session.EndedAt != nil {
		return nil, ErrAlreadyFinalized
	}

	if r.cancelTick != nil {
		r.cancelTick()
		r.cancelTick = nil
	}

	endedAt := r.now()
	summary := models.SessionSummary{
		DurationSec: int(endedAt.Sub(r.session.StartedAt).Seconds()),
	}

	for _, item := range r.items {
		if item.Skipped {
			summary.SkippedExercises++
			continue
		}
		if len(item.PerformedSets) == 0 {
			continue
		}
		summary.CompletedExercises++
		summary.TotalSets += len(item.PerformedSets)
		for _, s := range item.PerformedSets {
			summary.TotalVolume += s.WeightKg * float64(s.Reps)
		}

		prev, err := r.best.BestPerformance(ctx, item.ExerciseID)
		if err != nil {
			r.log.Warn("pr detection skipped", "exercise", item.ExerciseID, "error", err)
			continue
		}
		summary.PersonalRecords = append(summary.PersonalRecords,
			progression.DetectPRs(item.ExerciseID, item.PerformedSets, prev, endedAt)...)
	}

	if err := r.rec.RecordFinalize(ctx, models.FinalizePayload{
		SessionID: r.session.ID,
		EndedAt:   endedAt,
		Summary:   summary,
	}); err != nil {
		return nil, fmt.Errorf("recording finalize: %w", err)
	}

	r.session.EndedAt = &endedAt
	r.session.Summary = &summary
	return &summary, nil
}

func (r *Runner) itemIndex(itemID uuid.UUID) int {
	for i := range r.items {
		if r.items[i].ID == itemID {
			return i
		}
	}
	return -1
}
