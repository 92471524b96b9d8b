package planner

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

func testProfile() models.TrainingProfile {
	return models.TrainingProfile{
		GoalWeights: map[models.Goal]float64{
			models.GoalBuildMuscle:   0.25,
			models.GoalBuildStrength: 0.25,
			models.GoalLoseFat:       0.25,
			models.GoalGetFitter:     0.25,
		},
		EquipmentIDs: []string{"barbell", "rack", "bench", "dumbbells"},
		Frequency:    models.FrequencyAuto,
	}
}

var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC) // a Monday

// TestBuildPlanGoalWeightsNormalized verifies the returned plan's goal
// weights sum to 1.0 within floating-point tolerance, even when the
// profile's raw weights do not.
func TestBuildPlanGoalWeightsNormalized(t *testing.T) {
	p := testProfile()
	p.GoalWeights = map[models.Goal]float64{
		models.GoalBuildMuscle:   3,
		models.GoalBuildStrength: 1,
	}
	plan, err := BuildFourWeekPlan(p, []time.Weekday{time.Monday, time.Thursday}, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum float64
	for _, w := range plan.GoalWeights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("goal weights sum = %f, want 1.0", sum)
	}
	if plan.GoalWeights[models.GoalBuildMuscle] != 0.75 {
		t.Errorf("build_muscle weight = %f, want 0.75", plan.GoalWeights[models.GoalBuildMuscle])
	}
}

// TestBuildPlanZeroWeightsEqualized verifies a profile whose goal
// weights sum to zero is treated as equally weighted.
func TestBuildPlanZeroWeightsEqualized(t *testing.T) {
	p := testProfile()
	p.GoalWeights = nil
	plan, err := BuildFourWeekPlan(p, []time.Weekday{time.Monday}, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, g := range models.Goals {
		if math.Abs(plan.GoalWeights[g]-0.25) > 1e-9 {
			t.Errorf("weight for %s = %f, want 0.25", g, plan.GoalWeights[g])
		}
	}
}

// TestBuildPlanNoWeekdays verifies an empty weekday selection is rejected.
func TestBuildPlanNoWeekdays(t *testing.T) {
	_, err := BuildFourWeekPlan(testProfile(), nil, monday)
	if !errors.Is(err, ErrNoWeekdays) {
		t.Fatalf("err = %v, want ErrNoWeekdays", err)
	}
}

// TestBuildPlanProgressiveOverload verifies weekly intensity never
// decreases across the block, for a strength-heavy and a fat-loss-heavy
// goal mix alike.
func TestBuildPlanProgressiveOverload(t *testing.T) {
	for name, weights := range map[string]map[models.Goal]float64{
		"strength": {models.GoalBuildStrength: 1},
		"fat_loss": {models.GoalLoseFat: 1},
		"mixed":    {models.GoalBuildMuscle: 0.5, models.GoalGetFitter: 0.5},
	} {
		p := testProfile()
		p.GoalWeights = weights
		plan, err := BuildFourWeekPlan(p, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, monday)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		for i := 1; i < len(plan.Weeks); i++ {
			if plan.Weeks[i].Intensity < plan.Weeks[i-1].Intensity {
				t.Errorf("%s: week %d intensity %f below week %d intensity %f",
					name, i+1, plan.Weeks[i].Intensity, i, plan.Weeks[i-1].Intensity)
			}
		}
		if last := plan.Weeks[len(plan.Weeks)-1]; last.Intensity < plan.Weeks[0].Intensity {
			t.Errorf("%s: week 4 prescribes less than week 1", name)
		}
	}
}

// TestBuildPlanFrequencyDowngrade verifies an infeasible frequency
// preference downgrades to auto with a warning instead of failing.
func TestBuildPlanFrequencyDowngrade(t *testing.T) {
	p := testProfile()
	p.Frequency = models.FrequencyOnce
	plan, err := BuildFourWeekPlan(p, []time.Weekday{time.Monday, time.Thursday}, monday)
	if err != nil {
		t.Fatalf("downgrade must not fail the plan: %v", err)
	}
	if plan.Frequency != models.FrequencyAuto {
		t.Errorf("frequency = %s, want auto", plan.Frequency)
	}
	if len(plan.Warnings) == 0 {
		t.Error("expected a downgrade warning")
	}
}

// TestBuildPlanFrequencyFeasible verifies a feasible preference is kept
// without warnings.
func TestBuildPlanFrequencyFeasible(t *testing.T) {
	p := testProfile()
	p.Frequency = models.FrequencyTwice
	plan, err := BuildFourWeekPlan(p, []time.Weekday{time.Monday, time.Thursday}, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Frequency != models.FrequencyTwice {
		t.Errorf("frequency = %s, want twice", plan.Frequency)
	}
	if len(plan.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", plan.Warnings)
	}
}

// TestGenerateProgramDaysTwelve covers the reference scenario: equal
// goal weights, 3 selected weekdays, 4-week duration produces exactly 12
// program days with strictly increasing dates.
func TestGenerateProgramDaysTwelve(t *testing.T) {
	plan, err := BuildFourWeekPlan(testProfile(), []time.Weekday{time.Monday, time.Wednesday, time.Friday}, monday)
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}
	days, err := GenerateProgramDays(uuid.New(), 1, plan, monday)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if len(days) != 12 {
		t.Fatalf("got %d days, want 12", len(days))
	}
	for i := 1; i < len(days); i++ {
		if !days[i].Date.After(days[i-1].Date) {
			t.Errorf("dates not strictly increasing at %d: %v then %v", i, days[i-1].Date, days[i].Date)
		}
	}
}

// TestGenerateProgramDaysCountInvariant verifies
// count == weeks * len(weekdays) across several selections.
func TestGenerateProgramDaysCountInvariant(t *testing.T) {
	for _, weekdays := range [][]time.Weekday{
		{time.Tuesday},
		{time.Monday, time.Thursday},
		{time.Monday, time.Tuesday, time.Thursday, time.Saturday},
		{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday},
	} {
		plan, err := BuildFourWeekPlan(testProfile(), weekdays, monday)
		if err != nil {
			t.Fatalf("plan error: %v", err)
		}
		days, err := GenerateProgramDays(uuid.New(), 1, plan, monday)
		if err != nil {
			t.Fatalf("generate error: %v", err)
		}
		if want := models.ProgramWeeks * len(weekdays); len(days) != want {
			t.Errorf("%d weekdays: got %d days, want %d", len(weekdays), len(days), want)
		}
	}
}

// TestGenerateProgramDaysStartsOnStartDate verifies the first generated
// day lands on the start date when it is a selected weekday.
func TestGenerateProgramDaysStartsOnStartDate(t *testing.T) {
	plan, err := BuildFourWeekPlan(testProfile(), []time.Weekday{time.Wednesday, time.Monday}, monday)
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}
	days, err := GenerateProgramDays(uuid.New(), 1, plan, monday)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if !days[0].Date.Equal(monday) {
		t.Errorf("first day = %v, want start date %v", days[0].Date, monday)
	}
	if days[0].WeekIndex != 1 || days[0].DayIndex != 1 {
		t.Errorf("first day indices = (%d, %d), want (1, 1)", days[0].WeekIndex, days[0].DayIndex)
	}
}

// TestGenerateProgramDaysDeterministic verifies two runs over the same
// plan produce identical calendars apart from row ids.
func TestGenerateProgramDaysDeterministic(t *testing.T) {
	plan, err := BuildFourWeekPlan(testProfile(), []time.Weekday{time.Monday, time.Friday}, monday)
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}
	id := uuid.New()
	a, err := GenerateProgramDays(id, 1, plan, monday)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	b, err := GenerateProgramDays(id, 1, plan, monday)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	for i := range a {
		if !a[i].Date.Equal(b[i].Date) || a[i].TemplateKey != b[i].TemplateKey || a[i].Intensity != b[i].Intensity {
			t.Errorf("run mismatch at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// TestWeekdayRotationArchetypes verifies three training days map to a
// push/pull/legs split in chronological order.
func TestWeekdayRotationArchetypes(t *testing.T) {
	plan, err := BuildFourWeekPlan(testProfile(), []time.Weekday{time.Friday, time.Monday, time.Wednesday}, monday)
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}
	got := []string{plan.Weeks[0].Days[0].TemplateKey, plan.Weeks[0].Days[1].TemplateKey, plan.Weeks[0].Days[2].TemplateKey}
	want := []string{"push", "pull", "legs"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d archetype = %s, want %s", i+1, got[i], want[i])
		}
	}
	// Monday sorts first relative to a Monday start even though Friday
	// was listed first.
	if plan.Weeks[0].Days[0].Weekday != time.Monday {
		t.Errorf("first day weekday = %s, want Monday", plan.Weeks[0].Days[0].Weekday)
	}
}

// TestFiveDayRotationFillsWithUpperLower verifies a five day week runs
// push/pull/legs then upper/lower, with no archetype repeated.
func TestFiveDayRotationFillsWithUpperLower(t *testing.T) {
	days := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	plan, err := BuildFourWeekPlan(testProfile(), days, monday)
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}
	want := []string{"push", "pull", "legs", "upper", "lower"}
	for i, w := range want {
		if got := plan.Weeks[0].Days[i].TemplateKey; got != w {
			t.Errorf("day %d archetype = %s, want %s", i+1, got, w)
		}
	}
}
