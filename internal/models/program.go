package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgramStatus is the lifecycle state of a ProgramInstance.
type ProgramStatus string

const (
	ProgramActive     ProgramStatus = "active"
	ProgramCompleted  ProgramStatus = "completed"
	ProgramCancelled  ProgramStatus = "cancelled"
	ProgramSuperseded ProgramStatus = "superseded"
)

// ProgramWeeks is the fixed program length.
const ProgramWeeks = 4

// PlanDay is one training day template inside the abstract plan.
type PlanDay struct {
	Weekday     time.Weekday `json:"weekday"`
	Archetype   string       `json:"archetype"` // template key: full_body, upper, lower, push, pull, legs
	Label       string       `json:"label"`
	Intents     []string     `json:"intents"`
	TemplateKey string       `json:"template_key"`
}

// PlanWeek is one week of the abstract plan with its overload scalars.
type PlanWeek struct {
	Index        int       `json:"index"` // 1..4
	Intensity    float64   `json:"intensity"`
	VolumeScalar float64   `json:"volume_scalar"`
	Days         []PlanDay `json:"days"`
}

// Plan is the abstract four-week periodization plan produced by the
// planner. GoalWeights are already normalized to sum to 1.0.
type Plan struct {
	GoalWeights map[Goal]float64 `json:"goal_weights"`
	Frequency   FrequencyPref    `json:"frequency"`
	Weeks       []PlanWeek       `json:"weeks"`
	Warnings    []string         `json:"warnings,omitempty"`
}

// ProgramInstance is one created program. ProfileSnapshot is an immutable
// copy of the profile at creation time; a new instance supersedes any
// prior active one.
type ProgramInstance struct {
	ID              uuid.UUID       `json:"id"`
	UserID          int             `json:"user_id"`
	StartDate       time.Time       `json:"start_date"`
	DurationWeeks   int             `json:"duration_weeks"`
	Weekdays        []time.Weekday  `json:"weekdays"`
	ProfileSnapshot TrainingProfile `json:"profile_snapshot"`
	Plan            Plan            `json:"plan"`
	Status          ProgramStatus   `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ProgramDay is one calendar-dated training day generated from a
// ProgramInstance. Rows are created in bulk at program creation and are
// read-only afterward.
type ProgramDay struct {
	ID           uuid.UUID `json:"id"`
	InstanceID   uuid.UUID `json:"instance_id"`
	UserID       int       `json:"user_id"`
	Date         time.Time `json:"date"`
	WeekIndex    int       `json:"week_index"` // 1..4
	DayIndex     int       `json:"day_index"`  // 1..len(weekdays) within the week
	Label        string    `json:"label"`
	TemplateKey  string    `json:"template_key"`
	Intents      []string  `json:"intents"`
	Intensity    float64   `json:"intensity"`
	VolumeScalar float64   `json:"volume_scalar"`
}
