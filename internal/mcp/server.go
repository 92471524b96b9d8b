package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/liftplan/internal/catalog"
	"github.com/claude/liftplan/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, cat *catalog.Catalog, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftPlan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftPlan strength training server. Query the active program, dated training days, deterministic session plans with decision traces, session summaries, and per-exercise personal records. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, cat: cat, engine: session.NewEngine(cat, log), log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetActiveProgram, Handler: h.getActiveProgram},
		server.ServerTool{Tool: toolGetProgramDays, Handler: h.getProgramDays},
		server.ServerTool{Tool: toolPreviewSessionPlan, Handler: h.previewSessionPlan},
		server.ServerTool{Tool: toolGetSessionSummary, Handler: h.getSessionSummary},
		server.ServerTool{Tool: toolGetExerciseBest, Handler: h.getExerciseBest},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resActiveProgram, Handler: h.activeProgram},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds     DataSource
	cat    *catalog.Catalog
	engine *session.Engine
	log    *slog.Logger
}

// --- Resource definitions ---

var resActiveProgram = mcp.NewResource(
	"liftplan://active_program",
	"Active Program",
	mcp.WithResourceDescription("The user's active four week program with its plan and all dated training days"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"liftplan://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All exercises with movement patterns, equipment requirements, and injury conflicts"),
	mcp.WithMIMEType("application/json"),
)
