// Package progression holds the pure strength-progression math: estimated
// one-rep-max, personal-record detection, and equipment weight steps.
package progression

import (
	"math"
	"time"

	"github.com/claude/liftplan/internal/models"
)

// Estimate1RM computes an Epley-style estimated one-rep max from a
// submaximal set. Monotonically increasing in both weight and reps.
func Estimate1RM(weightKg float64, reps int) float64 {
	if weightKg <= 0 || reps <= 0 {
		return 0
	}
	return weightKg * (1 + float64(reps)/30)
}

// WeightStep returns the smallest practical load increment for an
// equipment class, in kg. Dumbbell-class work steps finer than
// barbell-class; the step is used both for prescription rounding and for
// manual plus/minus adjustment controls.
func WeightStep(class models.EquipmentClass) float64 {
	switch class {
	case models.ClassDumbbell:
		return 1.0
	case models.ClassCable:
		return 2.5
	case models.ClassMachine:
		return 2.5
	case models.ClassBodyweight:
		// Weighted bodyweight variants add small plates.
		return 1.0
	default:
		return 2.5
	}
}

// RoundToStep rounds a weight to the nearest multiple of step.
func RoundToStep(weightKg, step float64) float64 {
	if step <= 0 {
		return weightKg
	}
	return math.Round(weightKg/step) * step
}

// SessionBest reduces a session's performed sets for one exercise to its
// best value per metric.
func SessionBest(sets []models.PerformedSet) models.BestPerformance {
	var best models.BestPerformance
	for _, s := range sets {
		if s.WeightKg > best.MaxWeight {
			best.MaxWeight = s.WeightKg
		}
		if float64(s.Reps) > best.MaxReps {
			best.MaxReps = float64(s.Reps)
		}
		if e := Estimate1RM(s.WeightKg, s.Reps); e > best.MaxE1RM {
			best.MaxE1RM = e
		}
		best.TotalVolume += s.WeightKg * float64(s.Reps)
	}
	return best
}

// DetectPRs compares a session's best per metric against the previous
// best and returns a record for every metric that is strictly greater.
// A tie is not a PR. When previous is nil, every positive metric is a
// first-time baseline PR.
func DetectPRs(exerciseID string, sets []models.PerformedSet, previous *models.BestPerformance, at time.Time) []models.PersonalRecord {
	if len(sets) == 0 {
		return nil
	}
	best := SessionBest(sets)

	var prev models.BestPerformance
	if previous != nil {
		prev = *previous
	}

	var prs []models.PersonalRecord
	record := func(metric models.PRMetric, value, prevValue float64) {
		if value <= 0 || value <= prevValue {
			return
		}
		prs = append(prs, models.PersonalRecord{
			ExerciseID: exerciseID,
			Metric:     metric,
			Value:      value,
			Previous:   prevValue,
			AchievedAt: at,
		})
	}
	record(models.PRMaxWeight, best.MaxWeight, prev.MaxWeight)
	record(models.PRMaxReps, best.MaxReps, prev.MaxReps)
	record(models.PRMaxE1RM, best.MaxE1RM, prev.MaxE1RM)
	record(models.PRTotalVolume, best.TotalVolume, prev.TotalVolume)
	return prs
}
