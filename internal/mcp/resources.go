package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) activeProgram(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	inst, err := h.ds.GetActiveProgram(ctx, uid)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, errors.New("no active program")
	}

	from := inst.StartDate
	to := from.AddDate(0, 0, 7*inst.DurationWeeks)
	days, err := h.ds.QueryProgramDays(ctx, inst.ID, from, to)
	if err != nil {
		h.log.Warn("active_program: days query failed", "error", err)
	}

	data, err := json.Marshal(map[string]any{
		"instance": inst,
		"days":     days,
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) exerciseCatalog(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(h.cat.List())
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
