package models

import (
	"time"

	"github.com/google/uuid"
)

// EquipmentClass groups exercises by loading implement. The class decides
// the weight-rounding step and rest defaults.
type EquipmentClass string

const (
	ClassBarbell    EquipmentClass = "barbell"
	ClassDumbbell   EquipmentClass = "dumbbell"
	ClassMachine    EquipmentClass = "machine"
	ClassCable      EquipmentClass = "cable"
	ClassBodyweight EquipmentClass = "bodyweight"
)

// Tier is an exercise's priority inside a session.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierAccessory Tier = "accessory"
)

// PlannedSet is one prescribed set inside a SessionPlan.
type PlannedSet struct {
	Index           int     `json:"index"` // 1-based
	TargetReps      int     `json:"target_reps"`
	SuggestedWeight float64 `json:"suggested_weight"` // kg
	RestSeconds     int     `json:"rest_seconds"`
}

// PlannedExercise is one selected exercise with its prescription.
type PlannedExercise struct {
	ExerciseID string       `json:"exercise_id"`
	Name       string       `json:"name"`
	Tier       Tier         `json:"tier"`
	Intent     string       `json:"intent"`
	Sets       []PlannedSet `json:"sets"`
}

// RankedAlternative is a runner-up candidate recorded in the trace.
type RankedAlternative struct {
	Intent     string  `json:"intent"`
	ExerciseID string  `json:"exercise_id"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
}

// DecisionTrace explains a SessionPlan. It never affects downstream
// behavior; it exists so the selection can be shown to the user.
type DecisionTrace struct {
	Reason             string              `json:"reason"`
	GoalBias           map[Goal]float64    `json:"goal_bias"` // goals with nonzero influence
	ConstraintsApplied []string            `json:"constraints_applied,omitempty"`
	RankedAlternatives []RankedAlternative `json:"ranked_alternatives,omitempty"`
	Confidence         float64             `json:"confidence"` // [0,1]
}

// SessionPlan is the ephemeral output of the session engine. It is never
// persisted; confirming it creates a TrainingSession and items.
type SessionPlan struct {
	ProgramDayID *uuid.UUID        `json:"program_day_id,omitempty"`
	Label        string            `json:"label"`
	Exercises    []PlannedExercise `json:"exercises"`
	Trace        DecisionTrace     `json:"trace"`
}

// SessionMode distinguishes timer-driven sessions from manual logging.
type SessionMode string

const (
	ModeTimed  SessionMode = "timed"
	ModeManual SessionMode = "manual"
)

// PRMetric identifies which metric a personal record was set on.
type PRMetric string

const (
	PRMaxWeight   PRMetric = "max_weight"
	PRMaxReps     PRMetric = "max_reps"
	PRMaxE1RM     PRMetric = "max_e1rm"
	PRTotalVolume PRMetric = "total_volume"
)

// PersonalRecord is one record set during a session.
type PersonalRecord struct {
	ExerciseID string    `json:"exercise_id"`
	Metric     PRMetric  `json:"metric"`
	Value      float64   `json:"value"`
	Previous   float64   `json:"previous"` // 0 when no prior best existed
	AchievedAt time.Time `json:"achieved_at"`
}

// BestPerformance is the historical best per metric for one exercise.
type BestPerformance struct {
	MaxWeight   float64 `json:"max_weight"`
	MaxReps     float64 `json:"max_reps"`
	MaxE1RM     float64 `json:"max_e1rm"`
	TotalVolume float64 `json:"total_volume"` // best single-session volume
}

// SessionSummary is computed exactly once, at session completion.
type SessionSummary struct {
	DurationSec        int              `json:"duration_sec"`
	CompletedExercises int              `json:"completed_exercises"`
	SkippedExercises   int              `json:"skipped_exercises"`
	TotalVolume        float64          `json:"total_volume"` // Σ weight×reps, kg
	TotalSets          int              `json:"total_sets"`
	PersonalRecords    []PersonalRecord `json:"personal_records,omitempty"`
}

// TrainingSession is a persisted training session. Program links are nil
// for ad hoc sessions. At most one session per user may be started and
// not yet ended.
type TrainingSession struct {
	ID                uuid.UUID        `json:"id"`
	UserID            int              `json:"user_id"`
	Mode              SessionMode      `json:"mode"`
	ProgramInstanceID *uuid.UUID       `json:"program_instance_id,omitempty"`
	ProgramDayID      *uuid.UUID       `json:"program_day_id,omitempty"`
	GoalsSnapshot     map[Goal]float64 `json:"goals_snapshot,omitempty"`
	StartedAt         time.Time        `json:"started_at"`
	EndedAt           *time.Time       `json:"ended_at,omitempty"`
	Summary           *SessionSummary  `json:"summary,omitempty"`
}

// PerformedSet is one logged set. A later log for the same set index
// replaces the earlier one; logs never duplicate per (item, index).
type PerformedSet struct {
	SetIndex    int       `json:"set_index"`
	WeightKg    float64   `json:"weight_kg"`
	Reps        int       `json:"reps"`
	RPE         *float64  `json:"rpe,omitempty"` // 1-10
	CompletedAt time.Time `json:"completed_at"`
}

// TrainingSessionItem is one exercise instance inside a session.
// PlannedSets are frozen verbatim from the SessionPlan at session start.
type TrainingSessionItem struct {
	ID            uuid.UUID      `json:"id"`
	SessionID     uuid.UUID      `json:"session_id"`
	ExerciseID    string         `json:"exercise_id"`
	Name          string         `json:"name"`
	Tier          Tier           `json:"tier"`
	PlannedSets   []PlannedSet   `json:"planned_sets"`
	PerformedSets []PerformedSet `json:"performed_sets,omitempty"`
	Skipped       bool           `json:"skipped"`
}

// NextPendingSetIndex returns the lowest planned set index without a
// performed log, or 0 when every planned set has been performed.
func (it TrainingSessionItem) NextPendingSetIndex() int {
	done := make(map[int]bool, len(it.PerformedSets))
	for _, s := range it.PerformedSets {
		done[s.SetIndex] = true
	}
	for _, p := range it.PlannedSets {
		if !done[p.Index] {
			return p.Index
		}
	}
	return 0
}
