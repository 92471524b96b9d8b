package mcp

import (
	"context"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultDateRange returns from/to defaulting to the coming four weeks.
func defaultDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if fromStr != "" {
		from, err = parseFlexTime(fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		from = time.Now().Truncate(24 * time.Hour)
	}

	if toStr != "" {
		to, err = parseFlexTime(toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		to = from.AddDate(0, 0, 7*models.ProgramWeeks)
	}

	return from, to, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetActiveProgram = mcp.NewTool("get_active_program",
	mcp.WithDescription("Get the user's active four week program: goal weights, weekly intensity and volume curve, day archetypes, and any planning warnings."),
)

var toolGetProgramDays = mcp.NewTool("get_program_days",
	mcp.WithDescription("List dated training days of a program instance. Each day carries its archetype label, intent slots, intensity, and volume scalar."),
	mcp.WithString("instance_id", mcp.Description("Program instance UUID. Defaults to the active program.")),
	mcp.WithString("from", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to today.")),
	mcp.WithString("to", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to four weeks after from.")),
)

var toolPreviewSessionPlan = mcp.NewTool("preview_session_plan",
	mcp.WithDescription("Synthesize the session plan for one program day: exercises with sets, target reps, suggested weights, rest times, and the full decision trace explaining every pick. Deterministic for a given day."),
	mcp.WithString("day_id", mcp.Required(), mcp.Description("Program day UUID")),
)

var toolGetSessionSummary = mcp.NewTool("get_session_summary",
	mcp.WithDescription("Get a training session with its items, logged sets, and (once finalized) the summary with volume totals and personal records."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Training session UUID")),
)

var toolGetExerciseBest = mcp.NewTool("get_exercise_best",
	mcp.WithDescription("Historical best performance for one exercise: max weight, max reps, max estimated 1RM, and best single-session volume."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise ID (e.g. barbell-bench-press)")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Personal record history for one exercise, most recent first. Each entry names the metric, the new value, and the previous best."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise ID")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List all catalog exercises with movement patterns, intents, equipment requirements, and injury conflict tags."),
)

// --- Tool handlers ---

func (h *handlers) getActiveProgram(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	inst, err := h.ds.GetActiveProgram(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_active_program", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if inst == nil {
		return mcp.NewToolResultError("no active program"), nil
	}

	result, err := mcp.NewToolResultJSON(inst)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgramDays(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	var instanceID uuid.UUID
	if s := req.GetString("instance_id", ""); s != "" {
		var err error
		instanceID, err = uuid.Parse(s)
		if err != nil {
			return mcp.NewToolResultError("invalid instance_id"), nil
		}
	} else {
		inst, err := h.ds.GetActiveProgram(ctx, uid)
		if err != nil {
			h.log.Error("mcp get_program_days", "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		if inst == nil {
			return mcp.NewToolResultError("no active program"), nil
		}
		instanceID = inst.ID
	}

	from, to, err := defaultDateRange(req.GetString("from", ""), req.GetString("to", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	days, err := h.ds.QueryProgramDays(ctx, instanceID, from, to)
	if err != nil {
		h.log.Error("mcp get_program_days", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(days)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) previewSessionPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dayStr, err := req.RequireString("day_id")
	if err != nil {
		return mcp.NewToolResultError("day_id parameter is required"), nil
	}
	dayID, err := uuid.Parse(dayStr)
	if err != nil {
		return mcp.NewToolResultError("invalid day_id"), nil
	}

	uid := UserIDFromContext(ctx)
	day, err := h.ds.GetProgramDay(ctx, dayID, uid)
	if err != nil {
		h.log.Error("mcp preview_session_plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if day == nil {
		return mcp.NewToolResultError("program day not found"), nil
	}

	inst, err := h.ds.GetProgramInstance(ctx, day.InstanceID, uid)
	if err != nil {
		h.log.Error("mcp preview_session_plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if inst == nil {
		return mcp.NewToolResultError("program instance not found"), nil
	}

	plan, err := h.engine.BuildFromProgramDay(*day, inst.ProfileSnapshot)
	if err != nil {
		return mcp.NewToolResultError("plan synthesis failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(plan)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	sessionID, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session_id"), nil
	}

	uid := UserIDFromContext(ctx)
	sess, err := h.ds.GetTrainingSession(ctx, sessionID, uid)
	if err != nil {
		h.log.Error("mcp get_session_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sess == nil {
		return mcp.NewToolResultError("session not found"), nil
	}

	items, err := h.ds.QuerySessionItems(ctx, sessionID)
	if err != nil {
		h.log.Error("mcp get_session_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"session": sess,
		"items":   items,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseBest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	if _, ok := h.cat.ByID(exerciseID); !ok {
		return mcp.NewToolResultError("unknown exercise: " + exerciseID), nil
	}

	uid := UserIDFromContext(ctx)
	best, err := h.ds.GetExerciseBest(ctx, uid, exerciseID)
	if err != nil {
		h.log.Error("mcp get_exercise_best", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if best == nil {
		return mcp.NewToolResultError("no history for exercise"), nil
	}

	result, err := mcp.NewToolResultJSON(best)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}

	uid := UserIDFromContext(ctx)
	records, err := h.ds.QueryPersonalRecords(ctx, uid, exerciseID)
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(records)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(h.cat.List())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
