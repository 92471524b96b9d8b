package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/planner"
	"github.com/claude/liftplan/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CreateProgramRequest is the body of POST /api/v1/programs.
type CreateProgramRequest struct {
	StartDate string                 `json:"start_date"` // YYYY-MM-DD
	Weekdays  []time.Weekday         `json:"weekdays"`
	Profile   models.TrainingProfile `json:"profile"`
}

// handleCreateProgram builds a four week plan from the submitted
// profile, persists the instance and all of its dated days, and
// supersedes any prior active program. Nothing is persisted when day
// generation fails.
func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var req CreateProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date, want YYYY-MM-DD"})
		return
	}

	plan, err := planner.BuildFourWeekPlan(req.Profile, req.Weekdays, startDate)
	if err != nil {
		if errors.Is(err, planner.ErrNoWeekdays) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	inst := models.ProgramInstance{
		ID:              uuid.New(),
		UserID:          defaultUserID,
		StartDate:       startDate,
		DurationWeeks:   models.ProgramWeeks,
		Weekdays:        req.Weekdays,
		ProfileSnapshot: req.Profile.Clone(),
		Plan:            plan,
		Status:          models.ProgramActive,
		CreatedAt:       time.Now().UTC(),
	}

	days, err := planner.GenerateProgramDays(inst.ID, inst.UserID, plan, startDate)
	if err != nil {
		// A count mismatch is a generation fault. Abort before anything
		// is written.
		s.log.Error("program day generation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// Instance and days commit together; a failed day insert must not
	// leave an active instance behind or supersede the prior program.
	if err := s.db.CreateProgramWithDays(r.Context(), inst, days); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"instance": inst,
		"days":     days,
	})
}

// handlePreviewProgram builds a plan without persisting anything.
func (s *Server) handlePreviewProgram(w http.ResponseWriter, r *http.Request) {
	var req CreateProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date, want YYYY-MM-DD"})
		return
	}

	plan, err := planner.BuildFourWeekPlan(req.Profile, req.Weekdays, startDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleGetActiveProgram(w http.ResponseWriter, r *http.Request) {
	inst, err := s.db.GetActiveProgram(r.Context(), defaultUserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if inst == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active program"})
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// handleCreateProgramInstance accepts a fully built instance pushed by
// an offline client.
func (s *Server) handleCreateProgramInstance(w http.ResponseWriter, r *http.Request) {
	var inst models.ProgramInstance
	if err := json.NewDecoder(r.Body).Decode(&inst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	inst.UserID = defaultUserID

	if err := s.db.CreateProgramInstance(r.Context(), inst); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

func (s *Server) handleCreateProgramDays(w http.ResponseWriter, r *http.Request) {
	instanceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid instance ID"})
		return
	}

	var days []models.ProgramDay
	if err := json.NewDecoder(r.Body).Decode(&days); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	for i := range days {
		days[i].InstanceID = instanceID
		days[i].UserID = defaultUserID
	}

	inserted, err := s.db.InsertProgramDays(r.Context(), days)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"inserted": inserted})
}

func (s *Server) handleGetProgramInstance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid instance ID"})
		return
	}

	inst, err := s.db.GetProgramInstance(r.Context(), id, defaultUserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if inst == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "program instance not found"})
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// handleCompleteProgram marks an active program completed. Completing a
// program that is already completed or superseded is a no-op.
func (s *Server) handleCompleteProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid instance ID"})
		return
	}

	if err := s.db.CompleteProgram(r.Context(), id, defaultUserID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(models.ProgramCompleted)})
}

func (s *Server) handleGetProgramDay(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid day ID"})
		return
	}

	day, err := s.db.GetProgramDay(r.Context(), id, defaultUserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if day == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "program day not found"})
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleQueryProgramDays(w http.ResponseWriter, r *http.Request) {
	instanceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid instance ID"})
		return
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	days, err := s.db.QueryProgramDays(r.Context(), instanceID, from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if days == nil {
		days = []models.ProgramDay{}
	}
	writeJSON(w, http.StatusOK, days)
}

// handlePreviewSessionPlan synthesizes the session plan for a program
// day using the owning program's frozen profile snapshot. The result is
// deterministic for a given day and snapshot.
func (s *Server) handlePreviewSessionPlan(w http.ResponseWriter, r *http.Request) {
	dayID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid day ID"})
		return
	}

	day, err := s.db.GetProgramDay(r.Context(), dayID, defaultUserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if day == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "program day not found"})
		return
	}

	inst, err := s.db.GetProgramInstance(r.Context(), day.InstanceID, defaultUserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if inst == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "program instance not found"})
		return
	}

	plan, err := s.engine.BuildFromProgramDay(*day, inst.ProfileSnapshot)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var sess models.TrainingSession
	if err := json.NewDecoder(r.Body).Decode(&sess); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	sess.UserID = defaultUserID
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}

	if err := s.db.CreateTrainingSession(r.Context(), sess); err != nil {
		if errors.Is(err, storage.ErrSessionInProgress) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	sess, err := s.db.GetTrainingSession(r.Context(), sessionID, defaultUserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	items, err := s.db.QuerySessionItems(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess,
		"items":   items,
	})
}

func (s *Server) handleCreateSessionItems(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var items []models.TrainingSessionItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	inserted, err := s.db.InsertSessionItems(r.Context(), sessionID, items)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"inserted": inserted})
}

func (s *Server) handleUpsertSessionItem(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var item models.TrainingSessionItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	item.ID = itemID
	item.SessionID = sessionID

	if err := s.db.UpsertSessionItem(r.Context(), sessionID, item); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleUpsertSetLog stores one performed set. The URL identifies the
// logical set; a replayed or corrected log overwrites in place.
func (s *Server) handleUpsertSetLog(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid set index"})
		return
	}

	var set models.PerformedSet
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	set.SetIndex = index

	if set.Reps < 1 || set.WeightKg < 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "reps must be >= 1 and weight must be >= 0"})
		return
	}

	payload := models.SetLogPayload{SessionID: sessionID, SessionItemID: itemID, Set: set}
	if err := s.db.UpsertSetLog(r.Context(), payload); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// handleFinalizeSession ends a session and persists its summary and any
// PRs the client detected. A replayed finalize is a no-op success.
func (s *Server) handleFinalizeSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var payload models.FinalizePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	payload.SessionID = sessionID

	if err := s.db.FinalizeSession(r.Context(), payload); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if len(payload.Summary.PersonalRecords) > 0 {
		if _, err := s.db.InsertPersonalRecords(r.Context(), defaultUserID, sessionID, payload.Summary.PersonalRecords); err != nil {
			s.log.Error("storing personal records", "session", sessionID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "finalized"})
}

func (s *Server) handleListExercises(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cat.List())
}

func (s *Server) handleExerciseBest(w http.ResponseWriter, r *http.Request) {
	exerciseID := chi.URLParam(r, "id")
	if _, ok := s.cat.ByID(exerciseID); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown exercise"})
		return
	}

	best, err := s.db.GetExerciseBest(r.Context(), defaultUserID, exerciseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if best == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no history for exercise"})
		return
	}
	writeJSON(w, http.StatusOK, best)
}

func (s *Server) handleExerciseRecords(w http.ResponseWriter, r *http.Request) {
	exerciseID := chi.URLParam(r, "id")
	if _, ok := s.cat.ByID(exerciseID); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown exercise"})
		return
	}

	records, err := s.db.QueryPersonalRecords(r.Context(), defaultUserID, exerciseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if records == nil {
		records = []models.PersonalRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// EventRequest is the body of POST /api/v1/events.
type EventRequest struct {
	Name       string          `json:"name"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	if err := s.db.InsertEvent(r.Context(), defaultUserID, req.Name, req.Attributes); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func parseDateRange(r *http.Request) (from, to time.Time, err error) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	if fromStr == "" {
		// Default: the coming four weeks
		from = time.Now().Truncate(24 * time.Hour)
		to = from.AddDate(0, 0, 7*models.ProgramWeeks)
		return
	}

	from, err = time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if toStr == "" {
		to = from.AddDate(0, 0, 7*models.ProgramWeeks)
		return
	}
	to, err = time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return
}
