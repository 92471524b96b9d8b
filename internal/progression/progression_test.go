package progression

import (
	"math"
	"testing"
	"time"

	"github.com/claude/liftplan/internal/models"
)

// TestEstimate1RMEpley verifies the Epley formula against the canonical
// example: 100kg x 5 reps gives 100 * (1 + 5/30) ≈ 116.67.
func TestEstimate1RMEpley(t *testing.T) {
	got := Estimate1RM(100, 5)
	want := 100 * (1 + 5.0/30)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Estimate1RM(100, 5) = %f, want %f", got, want)
	}
}

// TestEstimate1RMMonotonic verifies the estimate strictly increases with
// both weight and reps.
func TestEstimate1RMMonotonic(t *testing.T) {
	base := Estimate1RM(100, 5)
	if Estimate1RM(102.5, 5) <= base {
		t.Error("estimate did not increase with weight")
	}
	if Estimate1RM(100, 6) <= base {
		t.Error("estimate did not increase with reps")
	}
}

// TestEstimate1RMZeroInputs verifies degenerate inputs return 0 rather
// than a negative or nonsense estimate.
func TestEstimate1RMZeroInputs(t *testing.T) {
	if got := Estimate1RM(0, 5); got != 0 {
		t.Errorf("Estimate1RM(0, 5) = %f, want 0", got)
	}
	if got := Estimate1RM(100, 0); got != 0 {
		t.Errorf("Estimate1RM(100, 0) = %f, want 0", got)
	}
}

// TestWeightStepClasses verifies dumbbell-class equipment steps finer
// than barbell-class.
func TestWeightStepClasses(t *testing.T) {
	if db, bb := WeightStep(models.ClassDumbbell), WeightStep(models.ClassBarbell); db >= bb {
		t.Errorf("dumbbell step %f should be finer than barbell step %f", db, bb)
	}
}

// TestRoundToStep verifies rounding to barbell and dumbbell increments.
func TestRoundToStep(t *testing.T) {
	if got := RoundToStep(81.2, 2.5); got != 80 {
		t.Errorf("RoundToStep(81.2, 2.5) = %f, want 80", got)
	}
	if got := RoundToStep(81.3, 2.5); got != 82.5 {
		t.Errorf("RoundToStep(81.3, 2.5) = %f, want 82.5", got)
	}
	if got := RoundToStep(13.4, 1.0); got != 13 {
		t.Errorf("RoundToStep(13.4, 1.0) = %f, want 13", got)
	}
}

func set(w float64, reps int) models.PerformedSet {
	return models.PerformedSet{WeightKg: w, Reps: reps, CompletedAt: time.Now()}
}

// TestDetectPRsFirstTimeBaseline verifies every positive metric is a PR
// when no previous best exists.
func TestDetectPRsFirstTimeBaseline(t *testing.T) {
	prs := DetectPRs("barbell-bench-press", []models.PerformedSet{set(80, 5)}, nil, time.Now())
	if len(prs) != 4 {
		t.Fatalf("got %d PRs, want 4 (all metrics)", len(prs))
	}
	for _, pr := range prs {
		if pr.Previous != 0 {
			t.Errorf("baseline PR for %s has previous %f, want 0", pr.Metric, pr.Previous)
		}
	}
}

// TestDetectPRsTieIsNotPR verifies a metric exactly equal to the previous
// best does not produce a PR.
func TestDetectPRsTieIsNotPR(t *testing.T) {
	prev := &models.BestPerformance{MaxWeight: 80, MaxReps: 5, MaxE1RM: Estimate1RM(80, 5), TotalVolume: 400}
	prs := DetectPRs("barbell-bench-press", []models.PerformedSet{set(80, 5)}, prev, time.Now())
	if len(prs) != 0 {
		t.Fatalf("got %d PRs for an exactly tied session, want 0: %+v", len(prs), prs)
	}
}

// TestDetectPRsE1RMOnly covers the scenario where max weight ties the
// previous best but the estimated 1RM exceeds it: previousBest =
// {weight: 100, e1rm: 110}; logging 100kg x 5 (e1rm ≈ 116.67) must emit
// exactly one weight-or-e1rm PR, on e1rm.
func TestDetectPRsE1RMOnly(t *testing.T) {
	prev := &models.BestPerformance{
		MaxWeight:   100,
		MaxReps:     5,
		MaxE1RM:     110,
		TotalVolume: 500,
	}
	prs := DetectPRs("barbell-back-squat", []models.PerformedSet{set(100, 5)}, prev, time.Now())
	if len(prs) != 1 {
		t.Fatalf("got %d PRs, want 1: %+v", len(prs), prs)
	}
	if prs[0].Metric != models.PRMaxE1RM {
		t.Errorf("PR metric = %s, want %s", prs[0].Metric, models.PRMaxE1RM)
	}
	if prs[0].Previous != 110 {
		t.Errorf("PR previous = %f, want 110", prs[0].Previous)
	}
}

// TestDetectPRsStrictlyGreater verifies a strictly greater metric emits
// a PR carrying the prior value.
func TestDetectPRsStrictlyGreater(t *testing.T) {
	prev := &models.BestPerformance{MaxWeight: 80, MaxReps: 8, MaxE1RM: 120, TotalVolume: 2000}
	prs := DetectPRs("barbell-row", []models.PerformedSet{set(82.5, 5)}, prev, time.Now())
	if len(prs) != 1 {
		t.Fatalf("got %d PRs, want 1 (max weight only): %+v", len(prs), prs)
	}
	if prs[0].Metric != models.PRMaxWeight || prs[0].Previous != 80 {
		t.Errorf("got %+v, want max_weight PR over 80", prs[0])
	}
}

// TestDetectPRsEmptySession verifies an empty set list produces no PRs.
func TestDetectPRsEmptySession(t *testing.T) {
	if prs := DetectPRs("plank", nil, nil, time.Now()); len(prs) != 0 {
		t.Errorf("got %d PRs for empty session, want 0", len(prs))
	}
}

// TestSessionBestVolume verifies total volume sums weight x reps across
// all sets while max metrics take the single best set.
func TestSessionBestVolume(t *testing.T) {
	best := SessionBest([]models.PerformedSet{set(80, 5), set(85, 3), set(80, 8)})
	if best.MaxWeight != 85 {
		t.Errorf("MaxWeight = %f, want 85", best.MaxWeight)
	}
	if best.MaxReps != 8 {
		t.Errorf("MaxReps = %f, want 8", best.MaxReps)
	}
	wantVol := 80*5.0 + 85*3 + 80*8
	if best.TotalVolume != wantVol {
		t.Errorf("TotalVolume = %f, want %f", best.TotalVolume, wantVol)
	}
}
