// Package session synthesizes concrete workout plans from program day
// templates, advises in-session adjustments, and owns the running
// session lifecycle.
package session

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/claude/liftplan/internal/catalog"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/progression"
)

// Engine builds SessionPlans from program days. Building a plan has no
// side effects; the same inputs always produce the same plan, so a plan
// can be previewed and discarded freely.
type Engine struct {
	catalog *catalog.Catalog
	log     *slog.Logger
}

// NewEngine creates an Engine over a read-only exercise catalog.
func NewEngine(cat *catalog.Catalog, log *slog.Logger) *Engine {
	return &Engine{catalog: cat, log: log}
}

// primaryIntents are the movement intents filled by compound slots; all
// other intents are accessory work.
var primaryIntents = map[string]bool{
	"squat":           true,
	"hip_hinge":       true,
	"horizontal_push": true,
	"vertical_push":   true,
	"horizontal_pull": true,
	"vertical_pull":   true,
}

// rep ranges per goal, blended by the normalized goal weights.
var goalRepRanges = map[models.Goal][2]int{
	models.GoalBuildStrength: {3, 6},
	models.GoalBuildMuscle:   {8, 12},
	models.GoalLoseFat:       {10, 15},
	models.GoalGetFitter:     {12, 20},
}

// Set counts and rest defaults. The week volume scalar adds a set late
// in the block.
const (
	primaryBaseSets      = 4
	accessoryBaseSets    = 3
	volumeExtraThreshold = 1.15
	restCompoundPrimary  = 180
	restCompound         = 120
	restIsolation        = 90
	maxRankedAlternates  = 5
)

// scored pairs a candidate with its goal-alignment score.
type scored struct {
	ex    catalog.Exercise
	score float64
}

// BuildFromProgramDay synthesizes a SessionPlan for one program day
// using the program's frozen profile snapshot. Candidates are hard
// filtered on equipment, forbidden movement patterns, and injury
// conflicts, then scored against the normalized goal weights with
// catalog order as the stable tie-break.
func (e *Engine) BuildFromProgramDay(day models.ProgramDay, snapshot models.TrainingProfile) (models.SessionPlan, error) {
	if len(day.Intents) == 0 {
		return models.SessionPlan{}, fmt.Errorf("program day %s has no movement intents", day.ID)
	}

	weights := snapshot.NormalizedGoalWeights()
	dayID := day.ID
	plan := models.SessionPlan{
		ProgramDayID: &dayID,
		Label:        day.Label,
		Trace: models.DecisionTrace{
			GoalBias: weights,
		},
	}

	lo, hi := blendedRepRange(weights)
	target := targetReps(day.Intensity, lo, hi)

	chosen := make(map[string]bool)
	var confidences []float64

	for _, intent := range day.Intents {
		candidates, removed := e.candidatesFor(intent, snapshot, chosen)
		plan.Trace.ConstraintsApplied = append(plan.Trace.ConstraintsApplied, removed...)
		if len(candidates) == 0 {
			plan.Trace.ConstraintsApplied = append(plan.Trace.ConstraintsApplied,
				fmt.Sprintf("no eligible exercise for intent %q", intent))
			continue
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].score != candidates[j].score {
				return candidates[i].score > candidates[j].score
			}
			return candidates[i].ex.Order < candidates[j].ex.Order
		})

		winner := candidates[0]
		chosen[winner.ex.ID] = true
		confidences = append(confidences, slotConfidence(candidates))

		for _, alt := range candidates[1:min(len(candidates), 1+maxRankedAlternates)] {
			plan.Trace.RankedAlternatives = append(plan.Trace.RankedAlternatives, models.RankedAlternative{
				Intent:     intent,
				ExerciseID: alt.ex.ID,
				Name:       alt.ex.Name,
				Score:      round3(alt.score),
			})
		}

		tier := models.TierAccessory
		if primaryIntents[intent] {
			tier = models.TierPrimary
		}
		pe := models.PlannedExercise{
			ExerciseID: winner.ex.ID,
			Name:       winner.ex.Name,
			Tier:       tier,
			Intent:     intent,
		}
		pe.Sets = e.prescribeSets(winner.ex, tier, day, snapshot, target, &plan.Trace)
		plan.Exercises = append(plan.Exercises, pe)
	}

	if len(plan.Exercises) == 0 {
		return models.SessionPlan{}, fmt.Errorf("no exercises selectable for day %q with current equipment and constraints", day.Label)
	}

	plan.Trace.Confidence = meanConfidence(confidences)
	plan.Trace.Reason = fmt.Sprintf("Selected %d exercises for %s (week %d, intensity %.0f%%) ranked by goal alignment",
		len(plan.Exercises), day.Label, day.WeekIndex, day.Intensity*100)
	return plan, nil
}

// candidatesFor returns the scored eligible exercises for one intent and
// the human-readable constraints that removed candidates. Exercises
// already chosen for an earlier slot are skipped silently so a day never
// prescribes the same movement twice.
func (e *Engine) candidatesFor(intent string, snapshot models.TrainingProfile, chosen map[string]bool) ([]scored, []string) {
	var out []scored
	var removed []string
	for _, ex := range e.catalog.List() {
		if !ex.HasIntent(intent) || chosen[ex.ID] {
			continue
		}
		if !snapshot.HasEquipment(ex.Equipment) {
			removed = append(removed, fmt.Sprintf("%s excluded: missing equipment", ex.Name))
			continue
		}
		if pattern := forbiddenPattern(ex, snapshot); pattern != "" {
			removed = append(removed, fmt.Sprintf("%s excluded: movement pattern %q is forbidden", ex.Name, pattern))
			continue
		}
		if tag := injuryConflict(ex, snapshot); tag != "" {
			removed = append(removed, fmt.Sprintf("%s excluded: conflicts with injury %q", ex.Name, tag))
			continue
		}
		out = append(out, scored{ex: ex, score: goalScore(ex, snapshot.NormalizedGoalWeights())})
	}
	return out, removed
}

func forbiddenPattern(ex catalog.Exercise, p models.TrainingProfile) string {
	for _, fp := range p.ForbiddenPatterns {
		if fp == ex.Pattern {
			return fp
		}
	}
	return ""
}

func injuryConflict(ex catalog.Exercise, p models.TrainingProfile) string {
	for _, tag := range p.InjuryTags {
		for _, c := range ex.InjuryConflicts {
			if tag == c {
				return tag
			}
		}
	}
	return ""
}

// goalScore is the weighted sum of the exercise's per-goal affinity
// against the normalized goal-weight vector. Affinities are derived from
// catalog attributes, so scoring stays deterministic.
func goalScore(ex catalog.Exercise, weights map[models.Goal]float64) float64 {
	var score float64
	for g, w := range weights {
		score += w * goalAffinity(ex, g)
	}
	return score
}

func goalAffinity(ex catalog.Exercise, g models.Goal) float64 {
	switch g {
	case models.GoalBuildStrength:
		a := 0.3
		if ex.Compound {
			a += 0.5
		}
		if ex.Class == models.ClassBarbell {
			a += 0.2
		}
		return a
	case models.GoalBuildMuscle:
		a := 0.6
		if ex.Class != models.ClassBodyweight {
			a += 0.2
		}
		if ex.Compound {
			a += 0.1
		}
		return a
	case models.GoalLoseFat:
		a := 0.4
		if ex.Compound {
			a += 0.4
		}
		if ex.Pattern == "carry" {
			a += 0.2
		}
		return a
	case models.GoalGetFitter:
		a := 0.4
		if ex.Class == models.ClassBodyweight {
			a += 0.3
		}
		if ex.Pattern == "carry" || ex.Pattern == "core" {
			a += 0.3
		}
		return a
	}
	return 0
}

// prescribeSets builds the set prescription for one selected exercise.
// A missing baseline e1RM falls back to the catalog default working
// weight; the fallback is recorded in the trace, never fatal.
func (e *Engine) prescribeSets(ex catalog.Exercise, tier models.Tier, day models.ProgramDay, snapshot models.TrainingProfile, target int, trace *models.DecisionTrace) []models.PlannedSet {
	step := progression.WeightStep(ex.Class)

	var weight float64
	if e1rm, ok := snapshot.BaselineE1RM[ex.ID]; ok && e1rm > 0 {
		weight = progression.RoundToStep(e1rm*day.Intensity, step)
	} else {
		weight = ex.DefaultWeightKg
		trace.ConstraintsApplied = append(trace.ConstraintsApplied,
			fmt.Sprintf("%s: no baseline e1RM, using catalog default %.1fkg", ex.Name, weight))
	}

	count := accessoryBaseSets
	rest := restIsolation
	reps := target
	if tier == models.TierPrimary {
		count = primaryBaseSets
		rest = restCompound
		if ex.Compound {
			rest = restCompoundPrimary
		}
	} else {
		// accessories run a couple reps higher within the blended range
		reps = target + 2
	}
	if day.VolumeScalar >= volumeExtraThreshold {
		count++
	}

	sets := make([]models.PlannedSet, count)
	for i := range sets {
		sets[i] = models.PlannedSet{
			Index:           i + 1,
			TargetReps:      reps,
			SuggestedWeight: weight,
			RestSeconds:     rest,
		}
	}
	return sets
}

// blendedRepRange blends the per-goal rep ranges by the goal weights.
func blendedRepRange(weights map[models.Goal]float64) (lo, hi int) {
	var flo, fhi float64
	for g, w := range weights {
		r := goalRepRanges[g]
		flo += w * float64(r[0])
		fhi += w * float64(r[1])
	}
	lo = int(math.Round(flo))
	hi = int(math.Round(fhi))
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// targetReps inverts the Epley curve at the prescribed intensity and
// clamps into the goal-blended rep range.
func targetReps(intensity float64, lo, hi int) int {
	if intensity <= 0 {
		return lo
	}
	reps := int(math.Round(30 * (1/intensity - 1)))
	if reps < lo {
		return lo
	}
	if reps > hi {
		return hi
	}
	return reps
}

// slotConfidence maps the winner's score gap over the runner-up to
// [0,1]. A slot with a single eligible candidate is fully confident.
func slotConfidence(candidates []scored) float64 {
	if len(candidates) < 2 {
		return 1.0
	}
	gap := candidates[0].score - candidates[1].score
	c := 0.5 + gap*2
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func meanConfidence(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return round3(sum / float64(len(vals)))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
