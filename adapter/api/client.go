package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/commands"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/services"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/google/uuid"
)

// Client calls a running task API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL. A nil httpClient
// gets a client with a 30 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*queries.TaskDTO, error) {
	var out queries.TaskDTO
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTasks returns tasks sorted by AI score.
func (c *Client) ListTasks(ctx context.Context, query queries.ListTasksQuery) ([]queries.TaskDTO, error) {
	params := url.Values{}
	if query.Status != "" {
		params.Set("status", query.Status)
	}
	if query.Priority != "" {
		params.Set("priority", query.Priority)
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	path := "/api/tasks"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out []queries.TaskDTO
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTask returns a single task.
func (c *Client) GetTask(ctx context.Context, id uuid.UUID) (*queries.TaskDTO, error) {
	var out queries.TaskDTO
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id uuid.UUID, req UpdateTaskRequest) (*queries.TaskDTO, error) {
	var out queries.TaskDTO
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+id.String(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) (*commands.DeleteTaskResult, error) {
	var out commands.DeleteTaskResult
	if err := c.do(ctx, http.MethodDelete, "/api/tasks/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analytics returns the registry summary.
func (c *Client) Analytics(ctx context.Context) (*queries.AnalyticsSummary, error) {
	var out queries.AnalyticsSummary
	if err := c.do(ctx, http.MethodGet, "/api/analytics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Score asks the server to explain the score of ad-hoc attributes.
func (c *Client) Score(ctx context.Context, req ScoreRequest) (*services.ScoreBreakdown, error) {
	var out services.ScoreBreakdown
	if err := c.do(ctx, http.MethodPost, "/api/score", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := observability.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(correlationHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
