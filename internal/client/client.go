// Package client talks to the scoring API the way a test-taker's front end does: it opens a
// timed session and submits the answer against it.
package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/timing"
	"github.com/SAP-F-2025/pte-scoring-service/internal/validator"
)

// APIError is a non-2xx answer decoded from the error body.
type APIError struct {
	Status     int            `json:"-"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	RetryAfter time.Duration  `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	http *resty.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c}
}

// StartSession matches timing.SessionStarter.
func (c *Client) StartSession(ctx context.Context, req timing.SessionRequest) (*models.SessionResponse, error) {
	body := validator.StartSessionRequest{
		Section:      req.Section,
		QuestionType: req.QuestionType,
		QuestionID:   req.QuestionID,
		PrepMs:       &req.PrepMs,
		AnswerMs:     &req.AnswerMs,
	}
	var out models.SessionResponse
	if err := c.post(ctx, "/api/v1/sessions", body, &out); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return &out, nil
}

func (c *Client) ScoreAttempt(ctx context.Context, section models.Section, req *validator.ScoreAttemptRequest) (*models.AttemptResponse, error) {
	var out models.AttemptResponse
	if err := c.post(ctx, fmt.Sprintf("/api/v1/%s/attempts", section), req, &out); err != nil {
		return nil, fmt.Errorf("failed to score attempt: %w", err)
	}
	return &out, nil
}

// Timing fetches the catalogue entry for one task.
func (c *Client) Timing(ctx context.Context, section models.Section, qt models.QuestionType) (*timing.ItemTiming, error) {
	var out timing.ItemTiming
	apiErr := &APIError{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(apiErr).
		Get(fmt.Sprintf("/api/v1/timing/%s/%s", section, qt))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timing: %w", err)
	}
	if resp.IsError() {
		return nil, finishError(resp, apiErr)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	apiErr := &APIError{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(out).
		SetError(apiErr).
		Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return finishError(resp, apiErr)
	}
	return nil
}

func finishError(resp *resty.Response, apiErr *APIError) error {
	apiErr.Status = resp.StatusCode()
	if apiErr.Code == "" {
		apiErr.Code = "HTTP_" + strconv.Itoa(resp.StatusCode())
		apiErr.Message = resp.Status()
	}
	if s, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil {
		apiErr.RetryAfter = time.Duration(s) * time.Second
	}
	return apiErr
}
