package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/services"
)

func TestStartSession(t *testing.T) {
	m := &fakeManager{sessions: &fakeSessions{
		start: func(_ context.Context, req *services.StartSessionRequest, userID string) (*models.SessionResponse, error) {
			assert.Equal(t, "u1", userID)
			if req.QuestionID == 404 {
				return nil, services.NewCodedError(services.CodeNotFound, "Question not found", services.ErrQuestionNotFound)
			}
			return &models.SessionResponse{Token: "tok", StartAt: 1000, EndAt: 41000, AnswerMs: 40000, ServerNow: 1000}, nil
		},
	}}
	router := newTestRouter(m, "u1")

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessions", `{"section":"speaking","questionType":"read_aloud","questionId":1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, int64(41000), resp.EndAt)

	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions", `{"section":"speaking","questionType":"read_aloud","questionId":404}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTiming(t *testing.T) {
	router := newTestRouter(&fakeManager{}, "")

	tests := []struct {
		path   string
		status int
		label  string
		window int64
	}{
		{"/api/v1/timing/speaking/read_aloud", http.StatusOK, "Speaking · read aloud", 40_000},
		{"/api/v1/timing/writing/write_essay", http.StatusOK, "Writing · write essay", 1_200_000},
		{"/api/v1/timing/reading/fill_in_blanks", http.StatusOK, "Reading Section", 1_800_000},
		{"/api/v1/timing/maths/read_aloud", http.StatusBadRequest, "", 0},
		{"/api/v1/timing/speaking/write_essay", http.StatusBadRequest, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := doJSON(t, router, http.MethodGet, tt.path, "")
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			var resp timingResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.label, resp.Label)
			assert.Equal(t, tt.window, resp.WindowMs)
		})
	}
}

func TestExportAttempts(t *testing.T) {
	accuracy := 66.7
	scores, err := json.Marshal(models.ScoringResult{Overall: 60, Subscores: map[string]int{"reading": 60, "writing": 58}})
	require.NoError(t, err)

	var gotSection *models.Section
	m := &fakeManager{attempts: &fakeAttempts{
		export: func(_ context.Context, userID string, section *models.Section) ([]*models.Attempt, error) {
			gotSection = section
			return []*models.Attempt{{
				ID:         9,
				UserID:     userID,
				QuestionID: 4,
				Section:    models.SectionReading,
				Type:       models.ReadingWritingFillInBlanks,
				Status:     models.AttemptScored,
				Overall:    60,
				Accuracy:   &accuracy,
				Scores:     datatypes.JSON(scores),
				CreatedAt:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			}}, nil
		},
	}}
	router := newTestRouter(m, "u1")

	w := doJSON(t, router, http.MethodGet, "/api/v1/attempts/export?section=reading", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "pte-attempts-")
	require.NotNil(t, gotSection)
	assert.Equal(t, models.SectionReading, *gotSection)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Attempt ID", rows[0][0])
	assert.Equal(t, "9", rows[1][0])
	assert.Equal(t, "2026-03-10 09:00:00", rows[1][1])
	assert.Equal(t, "reading", rows[1][2])
	assert.Equal(t, "reading=60, writing=58", rows[1][9])
}

func TestExportAttempts_ServiceError(t *testing.T) {
	m := &fakeManager{attempts: &fakeAttempts{
		export: func(context.Context, string, *models.Section) ([]*models.Attempt, error) {
			return nil, services.NewCodedError(services.CodeBadRequest, "unknown section", nil)
		},
	}}
	w := doJSON(t, newTestRouter(m, "u1"), http.MethodGet, "/api/v1/attempts/export?section=maths", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProgress(t *testing.T) {
	var gotDays int
	m := &fakeManager{dashboard: &fakeDashboard{
		progress: func(_ context.Context, userID string, days int) (*services.ProgressResponse, error) {
			gotDays = days
			return &services.ProgressResponse{UserID: userID, Days: days, Total: 3, Streak: 2}, nil
		},
	}}
	router := newTestRouter(m, "u1")

	w := doJSON(t, router, http.MethodGet, "/api/v1/me/progress?days=7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, gotDays)

	w = doJSON(t, router, http.MethodGet, "/api/v1/me/progress?days=-3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30, gotDays)

	var resp services.ProgressResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Streak)
}

func TestHealth(t *testing.T) {
	m := &fakeManager{}
	router := newTestRouter(m, "")

	w := doJSON(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	m.healthErr = errors.New("db down")
	w = doJSON(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMiddlewareHeaders(t *testing.T) {
	router := newTestRouter(&fakeManager{}, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
