package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the LiftPlan REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// errNotFound marks a 404 so callers can map it to a nil result.
var errNotFound = fmt.Errorf("httpclient: not found")

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func (c *HTTPClient) GetActiveProgram(ctx context.Context, _ int) (*models.ProgramInstance, error) {
	body, err := c.get(ctx, "/api/v1/programs/active", nil)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var inst models.ProgramInstance
	if err := json.Unmarshal(body, &inst); err != nil {
		return nil, fmt.Errorf("httpclient: decode program instance: %w", err)
	}
	return &inst, nil
}

func (c *HTTPClient) GetProgramInstance(ctx context.Context, id uuid.UUID, _ int) (*models.ProgramInstance, error) {
	body, err := c.get(ctx, "/api/v1/programs/instances/"+id.String(), nil)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var inst models.ProgramInstance
	if err := json.Unmarshal(body, &inst); err != nil {
		return nil, fmt.Errorf("httpclient: decode program instance: %w", err)
	}
	return &inst, nil
}

func (c *HTTPClient) QueryProgramDays(ctx context.Context, instanceID uuid.UUID, from, to time.Time) ([]models.ProgramDay, error) {
	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))

	body, err := c.get(ctx, fmt.Sprintf("/api/v1/programs/instances/%s/days", instanceID), params)
	if err != nil {
		return nil, err
	}

	var days []models.ProgramDay
	if err := json.Unmarshal(body, &days); err != nil {
		return nil, fmt.Errorf("httpclient: decode program days: %w", err)
	}
	return days, nil
}

func (c *HTTPClient) GetProgramDay(ctx context.Context, id uuid.UUID, _ int) (*models.ProgramDay, error) {
	body, err := c.get(ctx, "/api/v1/programs/days/"+id.String(), nil)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var day models.ProgramDay
	if err := json.Unmarshal(body, &day); err != nil {
		return nil, fmt.Errorf("httpclient: decode program day: %w", err)
	}
	return &day, nil
}

// sessionEnvelope is the GET /api/v1/sessions/{id} response shape.
type sessionEnvelope struct {
	Session *models.TrainingSession      `json:"session"`
	Items   []models.TrainingSessionItem `json:"items"`
}

func (c *HTTPClient) getSessionEnvelope(ctx context.Context, id uuid.UUID) (*sessionEnvelope, error) {
	body, err := c.get(ctx, "/api/v1/sessions/"+id.String(), nil)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var env sessionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &env, nil
}

func (c *HTTPClient) GetTrainingSession(ctx context.Context, id uuid.UUID, _ int) (*models.TrainingSession, error) {
	env, err := c.getSessionEnvelope(ctx, id)
	if err != nil || env == nil {
		return nil, err
	}
	return env.Session, nil
}

func (c *HTTPClient) QuerySessionItems(ctx context.Context, sessionID uuid.UUID) ([]models.TrainingSessionItem, error) {
	env, err := c.getSessionEnvelope(ctx, sessionID)
	if err != nil || env == nil {
		return nil, err
	}
	return env.Items, nil
}

func (c *HTTPClient) GetExerciseBest(ctx context.Context, _ int, exerciseID string) (*models.BestPerformance, error) {
	body, err := c.get(ctx, "/api/v1/exercises/"+url.PathEscape(exerciseID)+"/best", nil)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var best models.BestPerformance
	if err := json.Unmarshal(body, &best); err != nil {
		return nil, fmt.Errorf("httpclient: decode best performance: %w", err)
	}
	return &best, nil
}

func (c *HTTPClient) QueryPersonalRecords(ctx context.Context, _ int, exerciseID string) ([]models.PersonalRecord, error) {
	body, err := c.get(ctx, "/api/v1/exercises/"+url.PathEscape(exerciseID)+"/records", nil)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []models.PersonalRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("httpclient: decode personal records: %w", err)
	}
	return records, nil
}
