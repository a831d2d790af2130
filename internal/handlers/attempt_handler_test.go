package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/services"
)

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

const scoreBody = `{"questionId":1,"type":"multiple_choice_single","userResponse":{"selectedOption":"B"},"sessionToken":"tok"}`

func TestScoreAttempt_Created(t *testing.T) {
	var gotSection models.Section
	var gotUser string
	m := &fakeManager{attempts: &fakeAttempts{
		score: func(_ context.Context, section models.Section, req *services.ScoreAttemptRequest, userID string) (*models.AttemptResponse, error) {
			gotSection, gotUser = section, userID
			assert.Equal(t, uint(1), req.QuestionID)
			assert.Equal(t, "tok", req.SessionToken)
			return &models.AttemptResponse{
				Attempt: &models.Attempt{ID: 7, Section: section, Overall: 90},
				Scores:  &models.ScoringResult{Overall: 90, Subscores: map[string]int{"reading": 90}},
			}, nil
		},
	}}
	router := newTestRouter(m, "u1")

	w := doJSON(t, router, http.MethodPost, "/api/v1/reading/attempts", scoreBody)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, models.SectionReading, gotSection)
	assert.Equal(t, "u1", gotUser)

	var resp models.AttemptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(7), resp.Attempt.ID)
	assert.Equal(t, 90, resp.Scores.Overall)
}

func TestScoreAttempt_RequestRejected(t *testing.T) {
	called := false
	m := &fakeManager{attempts: &fakeAttempts{
		score: func(context.Context, models.Section, *services.ScoreAttemptRequest, string) (*models.AttemptResponse, error) {
			called = true
			return &models.AttemptResponse{}, nil
		},
	}}

	tests := []struct {
		name        string
		userID      string
		path        string
		body        string
		contentType string
		status      int
		code        services.ErrorCode
	}{
		{"anonymous", "", "/api/v1/reading/attempts", scoreBody, "application/json", http.StatusUnauthorized, services.CodeUnauthorized},
		{"unknown section", "u1", "/api/v1/maths/attempts", scoreBody, "application/json", http.StatusBadRequest, services.CodeBadRequest},
		{"malformed json", "u1", "/api/v1/reading/attempts", `{"questionId":`, "application/json", http.StatusBadRequest, services.CodeBadRequest},
		{"wrong media type", "u1", "/api/v1/reading/attempts", scoreBody, "text/plain", http.StatusUnsupportedMediaType, services.CodeUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			router := newTestRouter(m, tt.userID)
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
			assert.False(t, called)
		})
	}
}

func TestScoreAttempt_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		code       services.ErrorCode
		retryAfter string
	}{
		{
			name:   "validation",
			err:    services.ValidationErrors{{Field: "userResponse.text", Message: "is required"}},
			status: http.StatusBadRequest,
			code:   services.CodeValidation,
		},
		{
			name:   "timing",
			err:    services.NewCodedError(services.CodeTimingViolation, "Submission outside the timed window", nil),
			status: http.StatusConflict,
			code:   services.CodeTimingViolation,
		},
		{
			name:   "inactive",
			err:    services.NewCodedError(services.CodeInactiveQuestion, "Question is not active", nil),
			status: http.StatusConflict,
			code:   services.CodeInactiveQuestion,
		},
		{
			name:   "type mismatch",
			err:    services.NewCodedError(services.CodeTypeMismatch, "Type does not match question", nil),
			status: http.StatusBadRequest,
			code:   services.CodeTypeMismatch,
		},
		{
			name: "rate limited",
			err: func() error {
				e := services.NewCodedError(services.CodeRateLimited, "Rate limit exceeded", nil)
				e.RetryAfter = 90 * time.Second
				return e.WithDetails(map[string]any{"retryAfterSeconds": 90})
			}(),
			status:     http.StatusTooManyRequests,
			code:       services.CodeRateLimited,
			retryAfter: "90",
		},
		{
			name:   "grader unavailable",
			err:    services.NewCodedError(services.CodeGraderUnavailable, "No grader answered", nil).WithDetails(map[string]any{"attemptId": 3}),
			status: http.StatusServiceUnavailable,
			code:   services.CodeGraderUnavailable,
		},
		{
			name:   "not found",
			err:    services.NewCodedError(services.CodeNotFound, "Question not found", services.ErrQuestionNotFound),
			status: http.StatusNotFound,
			code:   services.CodeNotFound,
		},
		{
			name:   "unexpected",
			err:    errors.New("connection reset"),
			status: http.StatusInternalServerError,
			code:   services.CodeInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeManager{attempts: &fakeAttempts{
				score: func(context.Context, models.Section, *services.ScoreAttemptRequest, string) (*models.AttemptResponse, error) {
					return nil, tt.err
				},
			}}
			w := doJSON(t, newTestRouter(m, "u1"), http.MethodPost, "/api/v1/writing/attempts", scoreBody)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
		})
	}
}

func TestGetAttempt(t *testing.T) {
	m := &fakeManager{attempts: &fakeAttempts{
		get: func(_ context.Context, id uint, userID string) (*models.AttemptResponse, error) {
			if id == 2 {
				return nil, services.NewPermissionError(userID, id, "attempt", "read", "not owner")
			}
			return &models.AttemptResponse{Attempt: &models.Attempt{ID: id, UserID: userID}}, nil
		},
	}}
	router := newTestRouter(m, "u1")

	w := doJSON(t, router, http.MethodGet, "/api/v1/attempts/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/attempts/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.CodeNotFound, decodeError(t, w).Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/attempts/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAttempts(t *testing.T) {
	var got *services.ListAttemptsQuery
	m := &fakeManager{attempts: &fakeAttempts{
		list: func(_ context.Context, section models.Section, q *services.ListAttemptsQuery, _ string) (*models.AttemptListResponse, error) {
			assert.Equal(t, models.SectionListening, section)
			got = q
			return &models.AttemptListResponse{Page: q.Page, PageSize: q.PageSize, Total: 0, Data: []*models.Attempt{}}, nil
		},
	}}
	router := newTestRouter(m, "u1")

	w := doJSON(t, router, http.MethodGet, "/api/v1/listening/attempts?page=2&pageSize=10&questionId=5", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 10, got.PageSize)
	require.NotNil(t, got.QuestionID)
	assert.Equal(t, uint(5), *got.QuestionID)

	w = doJSON(t, router, http.MethodGet, "/api/v1/listening/attempts?page=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
