package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

// Client is the HTTP implementation of API against a liftplan server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: Client satisfies API.
var _ API = (*Client)(nil)

// NewClient creates a Client for the given server base URL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) CreateProgramInstance(ctx context.Context, inst models.ProgramInstance) error {
	return c.send(ctx, http.MethodPost, "/api/v1/programs/instances", inst, nil)
}

func (c *Client) CreateProgramDays(ctx context.Context, instanceID uuid.UUID, days []models.ProgramDay) error {
	path := fmt.Sprintf("/api/v1/programs/instances/%s/days", instanceID)
	return c.send(ctx, http.MethodPost, path, days, nil)
}

func (c *Client) GetProgramDays(ctx context.Context, instanceID uuid.UUID, from, to time.Time) ([]models.ProgramDay, error) {
	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))
	path := fmt.Sprintf("/api/v1/programs/instances/%s/days?%s", instanceID, params.Encode())

	var days []models.ProgramDay
	if err := c.send(ctx, http.MethodGet, path, nil, &days); err != nil {
		return nil, err
	}
	return days, nil
}

func (c *Client) CreateTrainingSession(ctx context.Context, s models.TrainingSession) error {
	return c.send(ctx, http.MethodPost, "/api/v1/sessions", s, nil)
}

func (c *Client) CreateTrainingSessionItems(ctx context.Context, sessionID uuid.UUID, items []models.TrainingSessionItem) error {
	path := fmt.Sprintf("/api/v1/sessions/%s/items", sessionID)
	return c.send(ctx, http.MethodPost, path, items, nil)
}

func (c *Client) UpdateTrainingSessionItem(ctx context.Context, sessionID uuid.UUID, item models.TrainingSessionItem) error {
	path := fmt.Sprintf("/api/v1/sessions/%s/items/%s", sessionID, item.ID)
	return c.send(ctx, http.MethodPut, path, item, nil)
}

func (c *Client) UpsertSetLog(ctx context.Context, p models.SetLogPayload) error {
	path := fmt.Sprintf("/api/v1/sessions/%s/items/%s/sets/%d", p.SessionID, p.SessionItemID, p.Set.SetIndex)
	return c.send(ctx, http.MethodPut, path, p.Set, nil)
}

func (c *Client) UpdateTrainingSession(ctx context.Context, p models.FinalizePayload) error {
	path := fmt.Sprintf("/api/v1/sessions/%s/finalize", p.SessionID)
	return c.send(ctx, http.MethodPost, path, p, nil)
}

func (c *Client) GetExerciseBestPerformance(ctx context.Context, exerciseID string) (*models.BestPerformance, error) {
	var best models.BestPerformance
	path := "/api/v1/exercises/" + url.PathEscape(exerciseID) + "/best"
	if err := c.send(ctx, http.MethodGet, path, nil, &best); err != nil {
		var re *Error
		if errors.As(err, &re) && re.Status == http.StatusNotFound {
			return nil, nil // no history yet
		}
		return nil, err
	}
	return &best, nil
}

// send issues one JSON request and classifies failures. Network-level
// errors are transient; HTTP statuses map via classifyStatus.
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindPermanent, Msg: fmt.Sprintf("marshaling request: %v", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindPermanent, Msg: fmt.Sprintf("creating request: %v", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Msg: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{
			Kind:   classifyStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Msg:    strings.TrimSpace(string(msg)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Kind: KindTransient, Msg: fmt.Sprintf("decoding response: %v", err)}
		}
	}
	return nil
}
