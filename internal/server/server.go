package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/liftplan/internal/catalog"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// defaultUserID is the single-tenant user every request acts as.
const defaultUserID = 1

// Store is the storage surface the handlers need. *storage.DB
// satisfies it; tests substitute a fake.
type Store interface {
	CreateProgramInstance(ctx context.Context, inst models.ProgramInstance) error
	CreateProgramWithDays(ctx context.Context, inst models.ProgramInstance, days []models.ProgramDay) error
	GetActiveProgram(ctx context.Context, userID int) (*models.ProgramInstance, error)
	GetProgramInstance(ctx context.Context, id uuid.UUID, userID int) (*models.ProgramInstance, error)
	CompleteProgram(ctx context.Context, id uuid.UUID, userID int) error
	InsertProgramDays(ctx context.Context, rows []models.ProgramDay) (int64, error)
	QueryProgramDays(ctx context.Context, instanceID uuid.UUID, from, to time.Time) ([]models.ProgramDay, error)
	GetProgramDay(ctx context.Context, id uuid.UUID, userID int) (*models.ProgramDay, error)
	CreateTrainingSession(ctx context.Context, s models.TrainingSession) error
	InsertSessionItems(ctx context.Context, sessionID uuid.UUID, items []models.TrainingSessionItem) (int64, error)
	UpsertSessionItem(ctx context.Context, sessionID uuid.UUID, it models.TrainingSessionItem) error
	QuerySessionItems(ctx context.Context, sessionID uuid.UUID) ([]models.TrainingSessionItem, error)
	UpsertSetLog(ctx context.Context, p models.SetLogPayload) error
	FinalizeSession(ctx context.Context, p models.FinalizePayload) error
	GetTrainingSession(ctx context.Context, id uuid.UUID, userID int) (*models.TrainingSession, error)
	GetExerciseBest(ctx context.Context, userID int, exerciseID string) (*models.BestPerformance, error)
	InsertPersonalRecords(ctx context.Context, userID int, sessionID uuid.UUID, records []models.PersonalRecord) (int64, error)
	QueryPersonalRecords(ctx context.Context, userID int, exerciseID string) ([]models.PersonalRecord, error)
	InsertEvent(ctx context.Context, userID int, name string, attributes []byte) error
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     Store
	cat    *catalog.Catalog
	engine *session.Engine
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, cat *catalog.Catalog, log *slog.Logger, apiKey string) *Server {
	s := &Server{
		db:     db,
		cat:    cat,
		engine: session.NewEngine(cat, log),
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		r.Post("/programs", s.handleCreateProgram)
		r.Post("/programs/preview", s.handlePreviewProgram)
		r.Get("/programs/active", s.handleGetActiveProgram)
		r.Post("/programs/instances", s.handleCreateProgramInstance)
		r.Get("/programs/instances/{id}", s.handleGetProgramInstance)
		r.Post("/programs/instances/{id}/complete", s.handleCompleteProgram)
		r.Post("/programs/instances/{id}/days", s.handleCreateProgramDays)
		r.Get("/programs/instances/{id}/days", s.handleQueryProgramDays)
		r.Get("/programs/days/{id}", s.handleGetProgramDay)
		r.Get("/programs/days/{id}/plan", s.handlePreviewSessionPlan)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/sessions/{id}/items", s.handleCreateSessionItems)
		r.Put("/sessions/{id}/items/{itemID}", s.handleUpsertSessionItem)
		r.Put("/sessions/{id}/items/{itemID}/sets/{index}", s.handleUpsertSetLog)
		r.Post("/sessions/{id}/finalize", s.handleFinalizeSession)

		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{id}/best", s.handleExerciseBest)
		r.Get("/exercises/{id}/records", s.handleExerciseRecords)

		r.Post("/events", s.handleEvent)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
