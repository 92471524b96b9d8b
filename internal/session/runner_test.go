package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/claude/liftplan/internal/catalog"
	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

// fakeRecorder captures recorded mutations in memory.
type fakeRecorder struct {
	starts    int
	setLogs   []models.SetLogPayload
	items     []models.ItemPayload
	finalizes []models.FinalizePayload
	fail      error
}

func (f *fakeRecorder) RecordSessionStart(_ context.Context, s models.TrainingSession, items []models.TrainingSessionItem) error {
	if f.fail != nil {
		return f.fail
	}
	f.starts++
	return nil
}

func (f *fakeRecorder) RecordSetLog(_ context.Context, p models.SetLogPayload) error {
	if f.fail != nil {
		return f.fail
	}
	f.setLogs = append(f.setLogs, p)
	return nil
}

func (f *fakeRecorder) RecordItem(_ context.Context, p models.ItemPayload) error {
	if f.fail != nil {
		return f.fail
	}
	f.items = append(f.items, p)
	return nil
}

func (f *fakeRecorder) RecordFinalize(_ context.Context, p models.FinalizePayload) error {
	if f.fail != nil {
		return f.fail
	}
	f.finalizes = append(f.finalizes, p)
	return nil
}

// fakeBest serves canned best performances per exercise.
type fakeBest struct {
	best map[string]*models.BestPerformance
	errs map[string]error
}

func (f *fakeBest) BestPerformance(_ context.Context, exerciseID string) (*models.BestPerformance, error) {
	if err := f.errs[exerciseID]; err != nil {
		return nil, err
	}
	return f.best[exerciseID], nil
}

func testRunner(t *testing.T, rec *fakeRecorder, best *fakeBest) *Runner {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	if best == nil {
		best = &fakeBest{}
	}
	now := time.Date(2026, 9, 7, 18, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	return NewRunner(rec, best, cat, slog.New(slog.NewTextHandler(os.Stderr, nil)), clock)
}

func testPlan() models.SessionPlan {
	dayID := uuid.New()
	return models.SessionPlan{
		ProgramDayID: &dayID,
		Label:        "Push",
		Exercises: []models.PlannedExercise{
			{
				ExerciseID: "barbell-bench-press", Name: "Barbell Bench Press", Tier: models.TierPrimary, Intent: "horizontal_push",
				Sets: []models.PlannedSet{
					{Index: 1, TargetReps: 8, SuggestedWeight: 80, RestSeconds: 180},
					{Index: 2, TargetReps: 8, SuggestedWeight: 80, RestSeconds: 180},
				},
			},
			{
				ExerciseID: "triceps-pushdown", Name: "Cable Triceps Pushdown", Tier: models.TierAccessory, Intent: "elbow_extension",
				Sets: []models.PlannedSet{
					{Index: 1, TargetReps: 12, SuggestedWeight: 20, RestSeconds: 90},
				},
			},
		},
		Trace: models.DecisionTrace{GoalBias: map[models.Goal]float64{models.GoalBuildMuscle: 1}},
	}
}

// TestRunnerStartGuard verifies starting a second session while one is
// in progress fails with ErrSessionInProgress.
func TestRunnerStartGuard(t *testing.T) {
	r := testRunner(t, &fakeRecorder{}, nil)
	if _, err := r.Start(context.Background(), 1, models.ModeManual, testPlan(), nil); err != nil {
		t.Fatalf("first start: %v", err)
	}
	_, err := r.Start(context.Background(), 1, models.ModeManual, testPlan(), nil)
	if !errors.Is(err, ErrSessionInProgress) {
		t.Fatalf("second start err = %v, want ErrSessionInProgress", err)
	}
}

// TestRunnerStartFreezesPlannedSets verifies items carry the plan's sets
// verbatim and mutating the original plan afterward cannot change them.
func TestRunnerStartFreezesPlannedSets(t *testing.T) {
	r := testRunner(t, &fakeRecorder{}, nil)
	plan := testPlan()
	if _, err := r.Start(context.Background(), 1, models.ModeManual, plan, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	plan.Exercises[0].Sets[0].SuggestedWeight = 999

	items := r.Items()
	if items[0].PlannedSets[0].SuggestedWeight != 80 {
		t.Errorf("frozen set weight = %f, want 80", items[0].PlannedSets[0].SuggestedWeight)
	}
}

// TestRunnerLogSetReplacesSameIndex verifies a second log for the same
// set index replaces the first rather than duplicating it.
func TestRunnerLogSetReplacesSameIndex(t *testing.T) {
	rec := &fakeRecorder{}
	r := testRunner(t, rec, nil)
	if _, err := r.Start(context.Background(), 1, models.ModeManual, testPlan(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	itemID := r.Items()[0].ID

	for _, w := range []float64{80, 82.5} {
		if _, err := r.LogSet(context.Background(), itemID, models.PerformedSet{SetIndex: 1, WeightKg: w, Reps: 8}); err != nil {
			t.Fatalf("log set: %v", err)
		}
	}

	item := r.Items()[0]
	if len(item.PerformedSets) != 1 {
		t.Fatalf("got %d performed sets, want 1 (replace, not duplicate)", len(item.PerformedSets))
	}
	if item.PerformedSets[0].WeightKg != 82.5 {
		t.Errorf("weight = %f, want the replacing 82.5", item.PerformedSets[0].WeightKg)
	}
	if len(rec.setLogs) != 2 {
		t.Errorf("recorded %d set logs, want 2 (both sends, same idempotent target)", len(rec.setLogs))
	}
}

// TestRunnerLogSetReturnsAdjustment verifies an easy set produces an
// autoregulation adjustment for the next pending set.
func TestRunnerLogSetReturnsAdjustment(t *testing.T) {
	r := testRunner(t, &fakeRecorder{}, nil)
	if _, err := r.Start(context.Background(), 1, models.ModeManual, testPlan(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	itemID := r.Items()[0].ID

	easy := 5.0
	adj, err := r.LogSet(context.Background(), itemID, models.PerformedSet{SetIndex: 1, WeightKg: 80, Reps: 8, RPE: &easy})
	if err != nil {
		t.Fatalf("log set: %v", err)
	}
	if adj == nil {
		t.Fatal("expected an adjustment")
	}
	if adj.SetIndex != 2 {
		t.Errorf("adjustment targets set %d, want 2", adj.SetIndex)
	}
}

// TestRunnerFinalizeSummaryOnce verifies the summary is computed at
// completion and a second finalize fails.
func TestRunnerFinalizeSummaryOnce(t *testing.T) {
	rec := &fakeRecorder{}
	r := testRunner(t, rec, &fakeBest{})
	if _, err := r.Start(context.Background(), 1, models.ModeManual, testPlan(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	items := r.Items()
	if _, err := r.LogSet(context.Background(), items[0].ID, models.PerformedSet{SetIndex: 1, WeightKg: 80, Reps: 8}); err != nil {
		t.Fatalf("log set: %v", err)
	}
	if err := r.SkipItem(context.Background(), items[1].ID); err != nil {
		t.Fatalf("skip: %v", err)
	}

	summary, err := r.Finalize(context.Background())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if summary.CompletedExercises != 1 || summary.SkippedExercises != 1 {
		t.Errorf("completed/skipped = %d/%d, want 1/1", summary.CompletedExercises, summary.SkippedExercises)
	}
	if summary.TotalVolume != 80*8 {
		t.Errorf("volume = %f, want 640", summary.TotalVolume)
	}
	if summary.TotalSets != 1 {
		t.Errorf("total sets = %d, want 1", summary.TotalSets)
	}
	// First session ever: all four metrics are baseline PRs.
	if len(summary.PersonalRecords) != 4 {
		t.Errorf("got %d PRs, want 4 baseline PRs", len(summary.PersonalRecords))
	}
	if len(rec.finalizes) != 1 {
		t.Errorf("recorded %d finalizes, want 1", len(rec.finalizes))
	}

	if _, err := r.Finalize(context.Background()); !errors.Is(err, ErrAlreadyFinalized) {
		t.Errorf("second finalize err = %v, want ErrAlreadyFinalized", err)
	}
}

// TestRunnerFinalizePRFailureIsolated verifies one exercise's PR lookup
// failure does not abort summary computation for the rest.
func TestRunnerFinalizePRFailureIsolated(t *testing.T) {
	best := &fakeBest{errs: map[string]error{"barbell-bench-press": fmt.Errorf("remote unavailable")}}
	r := testRunner(t, &fakeRecorder{}, best)
	if _, err := r.Start(context.Background(), 1, models.ModeManual, testPlan(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	items := r.Items()
	if _, err := r.LogSet(context.Background(), items[0].ID, models.PerformedSet{SetIndex: 1, WeightKg: 80, Reps: 8}); err != nil {
		t.Fatalf("log set: %v", err)
	}
	if _, err := r.LogSet(context.Background(), items[1].ID, models.PerformedSet{SetIndex: 1, WeightKg: 20, Reps: 12}); err != nil {
		t.Fatalf("log set: %v", err)
	}

	summary, err := r.Finalize(context.Background())
	if err != nil {
		t.Fatalf("finalize must survive a per-exercise PR failure: %v", err)
	}
	if summary.CompletedExercises != 2 {
		t.Errorf("completed = %d, want 2", summary.CompletedExercises)
	}
	for _, pr := range summary.PersonalRecords {
		if pr.ExerciseID == "barbell-bench-press" {
			t.Error("got PRs for the exercise whose lookup failed")
		}
	}
	if len(summary.PersonalRecords) == 0 {
		t.Error("expected PRs for the exercise whose lookup succeeded")
	}
}

// TestRunnerStartAfterFinalize verifies a new session can start once the
// previous one has ended.
func TestRunnerStartAfterFinalize(t *testing.T) {
	r := testRunner(t, &fakeRecorder{}, nil)
	if _, err := r.Start(context.Background(), 1, models.ModeManual, testPlan(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.Finalize(context.Background()); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := r.Start(context.Background(), 1, models.ModeManual, testPlan(), nil); err != nil {
		t.Fatalf("start after finalize: %v", err)
	}
}

// TestRunnerLogSetWithoutSession verifies logging without a running
// session fails with ErrNoSession.
func TestRunnerLogSetWithoutSession(t *testing.T) {
	r := testRunner(t, &fakeRecorder{}, nil)
	_, err := r.LogSet(context.Background(), uuid.New(), models.PerformedSet{SetIndex: 1, WeightKg: 80, Reps: 8})
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}
