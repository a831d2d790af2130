package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/timing"
	"github.com/SAP-F-2025/pte-scoring-service/internal/validator"
)

func TestClient_SessionThenScore(t *testing.T) {
	var gotAuth string
	var sessionBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sessionBody))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.SessionResponse{Token: "tok", StartAt: 1, EndAt: 40_001, AnswerMs: 40_000})
	})
	mux.HandleFunc("POST /api/v1/speaking/attempts", func(w http.ResponseWriter, r *http.Request) {
		var req validator.ScoreAttemptRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tok", req.SessionToken)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.AttemptResponse{Attempt: &models.Attempt{ID: 5, Overall: 71}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "jwt", time.Second)
	ctx := context.Background()

	session, err := c.StartSession(ctx, timing.SessionRequest{
		Section:      models.SectionSpeaking,
		QuestionType: models.ReadAloud,
		QuestionID:   3,
		PrepMs:       35_000,
		AnswerMs:     40_000,
	})
	require.NoError(t, err)
	assert.Equal(t, "tok", session.Token)
	assert.Equal(t, "Bearer jwt", gotAuth)
	assert.Equal(t, "read_aloud", sessionBody["questionType"])
	assert.EqualValues(t, 35_000, sessionBody["prepMs"])

	resp, err := c.ScoreAttempt(ctx, models.SectionSpeaking, &validator.ScoreAttemptRequest{
		QuestionID:   3,
		Type:         models.ReadAloud,
		UserResponse: json.RawMessage(`{"transcript":"hello"}`),
		SessionToken: session.Token,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(5), resp.Attempt.ID)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code":"RATE_LIMITED","message":"Rate limit exceeded","details":{"retryAfterSeconds":120}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).ScoreAttempt(context.Background(), models.SectionReading, &validator.ScoreAttemptRequest{})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "RATE_LIMITED", apiErr.Code)
	assert.Equal(t, 2*time.Minute, apiErr.RetryAfter)
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Timing(context.Background(), models.SectionReading, models.FillInBlanks)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "HTTP_502", apiErr.Code)
}
