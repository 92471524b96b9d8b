// Package planner builds the abstract four-week periodization plan and
// expands it into concrete calendar-dated program days.
package planner

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

// ErrNoWeekdays is returned when a plan is requested with no selected
// training days.
var ErrNoWeekdays = errors.New("planner: at least one weekday must be selected")

// ErrDayCountMismatch indicates a generation fault: the number of
// produced program days does not equal weeks * days_per_week. It is
// fatal — callers must abort program creation rather than persist a
// partial calendar.
var ErrDayCountMismatch = errors.New("planner: generated day count mismatch")

// weekIntensity is the base progressive-overload curve. Week 4 always
// prescribes equal or greater load than week 1.
var weekIntensity = [models.ProgramWeeks]float64{0.70, 0.75, 0.80, 0.85}

// weekVolume scales accessory set counts across the block.
var weekVolume = [models.ProgramWeeks]float64{1.0, 1.0, 1.1, 1.2}

// archetype templates: ordered movement-intent slots per day template key.
var archetypeIntents = map[string][]string{
	"full_body": {"squat", "horizontal_push", "horizontal_pull", "hip_hinge", "core"},
	"upper":     {"horizontal_push", "horizontal_pull", "vertical_push", "vertical_pull", "elbow_flexion"},
	"lower":     {"squat", "hip_hinge", "knee_flexion", "core"},
	"push":      {"horizontal_push", "vertical_push", "elbow_extension"},
	"pull":      {"horizontal_pull", "vertical_pull", "elbow_flexion"},
	"legs":      {"squat", "hip_hinge", "knee_flexion", "core"},
}

var archetypeLabels = map[string]string{
	"full_body": "Full Body",
	"upper":     "Upper Body",
	"lower":     "Lower Body",
	"push":      "Push",
	"pull":      "Pull",
	"legs":      "Legs",
}

// archetypeRotation returns the day template keys for a week with n
// training days, in chronological slot order.
func archetypeRotation(n int) []string {
	switch n {
	case 1:
		return []string{"full_body"}
	case 2:
		return []string{"upper", "lower"}
	case 3:
		return []string{"push", "pull", "legs"}
	case 4:
		return []string{"upper", "lower", "upper", "lower"}
	default:
		// 5+ days: push/pull/legs, then upper/lower fill.
		out := make([]string, n)
		cycle := []string{"push", "pull", "legs", "upper", "lower"}
		for i := range out {
			out[i] = cycle[i%len(cycle)]
		}
		return out
	}
}

// BuildFourWeekPlan turns a training profile and selected weekdays into
// an abstract four-week plan. Goal weights in the returned plan are
// normalized to sum to 1.0. An infeasible muscle-group frequency
// preference is downgraded to auto with a warning instead of failing.
func BuildFourWeekPlan(profile models.TrainingProfile, weekdays []time.Weekday, startDate time.Time) (models.Plan, error) {
	if len(weekdays) == 0 {
		return models.Plan{}, ErrNoWeekdays
	}
	days := dedupeWeekdays(weekdays)
	if len(days) > 7 {
		return models.Plan{}, fmt.Errorf("planner: %d weekdays selected, max 7", len(days))
	}
	// Order days chronologically relative to the start date so day 1 of
	// each week is the first training day on the calendar.
	sortByOffset(days, startDate.Weekday())

	plan := models.Plan{
		GoalWeights: profile.NormalizedGoalWeights(),
		Frequency:   profile.Frequency,
	}

	switch profile.Frequency {
	case models.FrequencyOnce:
		if len(days) < 3 {
			plan.Frequency = models.FrequencyAuto
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("frequency 'once' needs at least 3 training days, got %d; using auto", len(days)))
		}
	case models.FrequencyTwice:
		if len(days) < 2 {
			plan.Frequency = models.FrequencyAuto
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("frequency 'twice' needs at least 2 training days, got %d; using auto", len(days)))
		}
	case models.FrequencyAuto, "":
		plan.Frequency = models.FrequencyAuto
	}

	bias := intensityBias(plan.GoalWeights)
	rotation := archetypeRotation(len(days))

	for w := 0; w < models.ProgramWeeks; w++ {
		week := models.PlanWeek{
			Index:        w + 1,
			Intensity:    clamp(weekIntensity[w]+bias, 0.5, 0.95),
			VolumeScalar: weekVolume[w],
		}
		for i, wd := range days {
			key := rotation[i]
			week.Days = append(week.Days, models.PlanDay{
				Weekday:     wd,
				Archetype:   key,
				Label:       archetypeLabels[key],
				Intents:     append([]string(nil), archetypeIntents[key]...),
				TemplateKey: key,
			})
		}
		plan.Weeks = append(plan.Weeks, week)
	}
	return plan, nil
}

// intensityBias shifts the whole curve by the goal mix: strength leans
// heavier, fat-loss and conditioning lean lighter. The shift is constant
// across weeks, so the overload curve stays monotone.
func intensityBias(weights map[models.Goal]float64) float64 {
	return 0.05*weights[models.GoalBuildStrength] -
		0.05*(weights[models.GoalLoseFat]+weights[models.GoalGetFitter])
}

// GenerateProgramDays expands an abstract plan into dated ProgramDay
// rows walking forward from startDate. Generation is deterministic and
// order-preserving: rows come out in strictly increasing date order.
// A count that does not equal weeks * days_per_week returns
// ErrDayCountMismatch.
func GenerateProgramDays(instanceID uuid.UUID, userID int, plan models.Plan, startDate time.Time) ([]models.ProgramDay, error) {
	if len(plan.Weeks) == 0 {
		return nil, fmt.Errorf("planner: plan has no weeks")
	}
	start := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, startDate.Location())

	var days []models.ProgramDay
	for _, week := range plan.Weeks {
		for i, d := range week.Days {
			offset := weekdayOffset(d.Weekday, start.Weekday()) + 7*(week.Index-1)
			days = append(days, models.ProgramDay{
				ID:           uuid.New(),
				InstanceID:   instanceID,
				UserID:       userID,
				Date:         start.AddDate(0, 0, offset),
				WeekIndex:    week.Index,
				DayIndex:     i + 1,
				Label:        d.Label,
				TemplateKey:  d.TemplateKey,
				Intents:      append([]string(nil), d.Intents...),
				Intensity:    week.Intensity,
				VolumeScalar: week.VolumeScalar,
			})
		}
	}

	want := len(plan.Weeks) * len(plan.Weeks[0].Days)
	if len(days) != want {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDayCountMismatch, len(days), want)
	}
	return days, nil
}

// weekdayOffset is the number of days from a reference weekday to the
// next occurrence of wd (0 when they match).
func weekdayOffset(wd, ref time.Weekday) int {
	return (int(wd) - int(ref) + 7) % 7
}

func sortByOffset(days []time.Weekday, ref time.Weekday) {
	sort.Slice(days, func(i, j int) bool {
		return weekdayOffset(days[i], ref) < weekdayOffset(days[j], ref)
	})
}

func dedupeWeekdays(in []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(in))
	var out []time.Weekday
	for _, d := range in {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
