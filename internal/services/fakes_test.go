package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	mu        sync.Mutex
	questions map[uint]*models.Question
	attempts  []*models.Attempt
	sessions  map[string]*models.AttemptSession
	summaries []repositories.SectionSummary
	activity  []repositories.DailyActivity
	dashCalls int
	now       func() time.Time
}

func newMemRepo(now func() time.Time) *memRepo {
	return &memRepo{
		questions: map[uint]*models.Question{},
		sessions:  map[string]*models.AttemptSession{},
		now:       now,
	}
}

func (r *memRepo) addQuestion(q *models.Question, key models.AnswerKey) {
	raw, _ := json.Marshal(key)
	q.AnswerKey = raw
	r.questions[q.ID] = q
}

func (r *memRepo) Question() repositories.QuestionRepository   { return memQuestions{r} }
func (r *memRepo) Attempt() repositories.AttemptRepository     { return memAttempts{r} }
func (r *memRepo) Session() repositories.SessionRepository     { return memSessions{r} }
func (r *memRepo) Dashboard() repositories.DashboardRepository { return memDashboard{r} }
func (r *memRepo) User() repositories.UserRepository           { return nil }
func (r *memRepo) WithTransaction(_ context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}
func (r *memRepo) Ping(context.Context) error { return nil }
func (r *memRepo) Close() error               { return nil }

type memQuestions struct{ r *memRepo }

func (m memQuestions) Create(_ context.Context, _ *gorm.DB, q *models.Question) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if q.ID == 0 {
		q.ID = uint(len(m.r.questions) + 1)
	}
	m.r.questions[q.ID] = q
	return nil
}

func (m memQuestions) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Question, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	q, ok := m.r.questions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return q, nil
}

func (m memQuestions) List(_ context.Context, _ *gorm.DB, f repositories.QuestionFilters) ([]*models.Question, int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.Question
	for _, q := range m.r.questions {
		if (f.Section != nil && q.Section != *f.Section) ||
			(f.Type != nil && q.Type != *f.Type) ||
			(f.Difficulty != nil && q.Difficulty != *f.Difficulty) ||
			(f.ActiveOnly && !q.IsActive) {
			continue
		}
		out = append(out, q)
	}
	slices.SortFunc(out, func(a, b *models.Question) int { return int(a.ID) - int(b.ID) })
	total := int64(len(out))
	out = out[min(f.Offset, len(out)):]
	if f.Limit > 0 {
		out = out[:min(f.Limit, len(out))]
	}
	return out, total, nil
}

type memAttempts struct{ r *memRepo }

func (m memAttempts) Create(_ context.Context, _ *gorm.DB, a *models.Attempt) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	a.ID = uint(len(m.r.attempts) + 1)
	m.r.attempts = append(m.r.attempts, a)
	return nil
}

func (m memAttempts) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Attempt, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, a := range m.r.attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m memAttempts) List(_ context.Context, _ *gorm.DB, f repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var matched []*models.Attempt
	for _, a := range slices.Backward(m.r.attempts) {
		if a.UserID != f.UserID {
			continue
		}
		if f.Section != nil && a.Section != *f.Section {
			continue
		}
		if f.QuestionID != nil && a.QuestionID != *f.QuestionID {
			continue
		}
		matched = append(matched, a)
	}
	total := int64(len(matched))
	start := min(f.Offset, len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(matched))
	}
	return matched[start:end], total, nil
}

func (m memAttempts) CountSince(_ context.Context, _ *gorm.DB, userID string, section models.Section, since time.Time) (int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var n int64
	for _, a := range m.r.attempts {
		if a.UserID == userID && a.Section == section && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type memSessions struct{ r *memRepo }

func (m memSessions) Create(_ context.Context, s *models.AttemptSession) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.r.sessions[s.Token] = s
	return nil
}

func (m memSessions) Consume(_ context.Context, token, userID string) (*models.AttemptSession, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	s, ok := m.r.sessions[token]
	if !ok || s.UserID != userID {
		return nil, repositories.ErrSessionNotFound
	}
	if s.IsConsumed() {
		return nil, repositories.ErrSessionConsumed
	}
	at := m.r.now()
	s.ConsumedAt = &at
	return s, nil
}

type memDashboard struct{ r *memRepo }

func (m memDashboard) GetSectionSummaries(context.Context, *gorm.DB, string) ([]repositories.SectionSummary, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.r.dashCalls++
	return slices.Clone(m.r.summaries), nil
}

func (m memDashboard) GetDailyActivity(context.Context, *gorm.DB, string, int) ([]repositories.DailyActivity, error) {
	return slices.Clone(m.r.activity), nil
}

// testClock is a settable clock shared by services and the fake repository.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mcqQuestion(id uint) (*models.Question, models.AnswerKey) {
	return &models.Question{
		ID:       id,
		Section:  models.SectionReading,
		Type:     models.MultipleChoiceSingle,
		Title:    "Main idea",
		Prompt:   "What is the passage mainly about?",
		IsActive: true,
	}, models.AnswerKey{Correct: "B"}
}
