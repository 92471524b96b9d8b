package session

import (
	"fmt"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/progression"
)

// Adjustment is a bounded tweak to the single next pending set. It never
// touches sets already logged, and it is recomputed from scratch (the
// previous one discarded) whenever the performed-set list changes.
type Adjustment struct {
	SetIndex           int     `json:"set_index"`
	NewTargetReps      int     `json:"new_target_reps"`
	NewSuggestedWeight float64 `json:"new_suggested_weight"`
	Rationale          string  `json:"rationale"`
}

// RPE thresholds for autoregulation.
const (
	rpeEasy        = 6.0
	rpeGrind       = 9.5
	missedRepsSlop = 2
)

// Advise computes the adjustment for the next pending set of an item
// after the given set was logged. Returns nil when no pending set
// remains or the last set landed inside the intended effort band. The
// weight perturbation is bounded to one rounding step of the exercise's
// equipment class.
func Advise(item models.TrainingSessionItem, last models.PerformedSet, class models.EquipmentClass) *Adjustment {
	next := item.NextPendingSetIndex()
	if next == 0 {
		return nil
	}
	nextPlanned, ok := plannedSet(item, next)
	if !ok {
		return nil
	}
	lastPlanned, ok := plannedSet(item, last.SetIndex)
	if !ok {
		return nil
	}

	step := progression.WeightStep(class)
	if step <= 0 {
		step = 1.0
	}

	switch {
	case last.RPE != nil && *last.RPE <= rpeEasy:
		return &Adjustment{
			SetIndex:           next,
			NewTargetReps:      nextPlanned.TargetReps,
			NewSuggestedWeight: nextPlanned.SuggestedWeight + step,
			Rationale:          fmt.Sprintf("Last set was RPE %.1f — adding %.1fkg for set %d", *last.RPE, step, next),
		}
	case last.RPE != nil && *last.RPE >= rpeGrind:
		w := nextPlanned.SuggestedWeight - step
		if w < 0 {
			w = 0
		}
		return &Adjustment{
			SetIndex:           next,
			NewTargetReps:      nextPlanned.TargetReps,
			NewSuggestedWeight: w,
			Rationale:          fmt.Sprintf("Last set was RPE %.1f — backing off %.1fkg for set %d", *last.RPE, step, next),
		}
	case last.Reps <= lastPlanned.TargetReps-missedRepsSlop:
		w := nextPlanned.SuggestedWeight - step
		if w < 0 {
			w = 0
		}
		reps := nextPlanned.TargetReps - 1
		if reps < 1 {
			reps = 1
		}
		return &Adjustment{
			SetIndex:           next,
			NewTargetReps:      reps,
			NewSuggestedWeight: w,
			Rationale: fmt.Sprintf("Missed target by %d reps — easing set %d to %d reps at %.1fkg",
				lastPlanned.TargetReps-last.Reps, next, reps, w),
		}
	}
	return nil
}

func plannedSet(item models.TrainingSessionItem, index int) (models.PlannedSet, bool) {
	for _, s := range item.PlannedSets {
		if s.Index == index {
			return s, true
		}
	}
	return models.PlannedSet{}, false
}
