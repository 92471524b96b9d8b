package models

import "time"

// Goal is one of the four training goals a profile can weight.
type Goal string

const (
	GoalBuildMuscle   Goal = "build_muscle"
	GoalBuildStrength Goal = "build_strength"
	GoalLoseFat       Goal = "lose_fat"
	GoalGetFitter     Goal = "get_fitter"
)

// Goals lists every goal in canonical order.
var Goals = []Goal{GoalBuildMuscle, GoalBuildStrength, GoalLoseFat, GoalGetFitter}

// FrequencyPref controls how often each muscle group is trained per week.
type FrequencyPref string

const (
	FrequencyOnce  FrequencyPref = "once"
	FrequencyTwice FrequencyPref = "twice"
	FrequencyAuto  FrequencyPref = "auto"
)

// TimeWindow is the preferred training window, hours in local time.
type TimeWindow struct {
	StartHour int `json:"start_hour" yaml:"start_hour"`
	EndHour   int `json:"end_hour" yaml:"end_hour"`
}

// TrainingProfile describes a user's goals, equipment, and constraints.
// It is read by the planner at program-creation time only; an active
// program keeps its own frozen copy (see ProgramInstance.ProfileSnapshot).
type TrainingProfile struct {
	GoalWeights       map[Goal]float64   `json:"goal_weights"`
	EquipmentIDs      []string           `json:"equipment_ids"`
	InjuryTags        []string           `json:"injury_tags,omitempty"`
	ForbiddenPatterns []string           `json:"forbidden_patterns,omitempty"`
	BaselineE1RM      map[string]float64 `json:"baseline_e1rm,omitempty"` // exercise id -> kg
	Weekdays          []time.Weekday     `json:"weekdays"`
	Frequency         FrequencyPref      `json:"frequency"`
	PreferredWindow   TimeWindow         `json:"preferred_window"`
}

// NormalizedGoalWeights returns the goal weights scaled to sum to 1.0.
// A profile whose weights sum to zero is treated as equally weighted
// across all goals.
func (p TrainingProfile) NormalizedGoalWeights() map[Goal]float64 {
	out := make(map[Goal]float64, len(Goals))
	var sum float64
	for _, g := range Goals {
		if w := p.GoalWeights[g]; w > 0 {
			sum += w
		}
	}
	if sum == 0 {
		for _, g := range Goals {
			out[g] = 1.0 / float64(len(Goals))
		}
		return out
	}
	for _, g := range Goals {
		if w := p.GoalWeights[g]; w > 0 {
			out[g] = w / sum
		}
	}
	return out
}

// HasEquipment reports whether every id in required is in the profile's
// equipment set. An empty requirement always matches (bodyweight work).
func (p TrainingProfile) HasEquipment(required []string) bool {
	if len(required) == 0 {
		return true
	}
	owned := make(map[string]bool, len(p.EquipmentIDs))
	for _, id := range p.EquipmentIDs {
		owned[id] = true
	}
	for _, id := range required {
		if !owned[id] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy. ProgramInstance snapshots are taken with
// Clone so later profile edits never reach an in-flight program.
func (p TrainingProfile) Clone() TrainingProfile {
	out := p
	out.GoalWeights = make(map[Goal]float64, len(p.GoalWeights))
	for k, v := range p.GoalWeights {
		out.GoalWeights[k] = v
	}
	out.EquipmentIDs = append([]string(nil), p.EquipmentIDs...)
	out.InjuryTags = append([]string(nil), p.InjuryTags...)
	out.ForbiddenPatterns = append([]string(nil), p.ForbiddenPatterns...)
	if p.BaselineE1RM != nil {
		out.BaselineE1RM = make(map[string]float64, len(p.BaselineE1RM))
		for k, v := range p.BaselineE1RM {
			out.BaselineE1RM[k] = v
		}
	}
	out.Weekdays = append([]time.Weekday(nil), p.Weekdays...)
	return out
}
