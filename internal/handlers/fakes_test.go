package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/services"
	"github.com/SAP-F-2025/pte-scoring-service/internal/utils"
)

func discardLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeSessions struct {
	start func(ctx context.Context, req *services.StartSessionRequest, userID string) (*models.SessionResponse, error)
}

func (f *fakeSessions) Start(ctx context.Context, req *services.StartSessionRequest, userID string) (*models.SessionResponse, error) {
	return f.start(ctx, req, userID)
}

func (f *fakeSessions) Redeem(context.Context, services.RedeemRequest) (*models.AttemptSession, error) {
	return nil, nil
}

type fakeAttempts struct {
	score  func(ctx context.Context, section models.Section, req *services.ScoreAttemptRequest, userID string) (*models.AttemptResponse, error)
	get    func(ctx context.Context, id uint, userID string) (*models.AttemptResponse, error)
	list   func(ctx context.Context, section models.Section, q *services.ListAttemptsQuery, userID string) (*models.AttemptListResponse, error)
	export func(ctx context.Context, userID string, section *models.Section) ([]*models.Attempt, error)
}

func (f *fakeAttempts) Score(ctx context.Context, section models.Section, req *services.ScoreAttemptRequest, userID string) (*models.AttemptResponse, error) {
	return f.score(ctx, section, req, userID)
}

func (f *fakeAttempts) GetByID(ctx context.Context, id uint, userID string) (*models.AttemptResponse, error) {
	return f.get(ctx, id, userID)
}

func (f *fakeAttempts) List(ctx context.Context, section models.Section, q *services.ListAttemptsQuery, userID string) (*models.AttemptListResponse, error) {
	return f.list(ctx, section, q, userID)
}

func (f *fakeAttempts) Export(ctx context.Context, userID string, section *models.Section) ([]*models.Attempt, error) {
	return f.export(ctx, userID, section)
}

type fakeDashboard struct {
	progress func(ctx context.Context, userID string, days int) (*services.ProgressResponse, error)
}

func (f *fakeDashboard) GetProgress(ctx context.Context, userID string, days int) (*services.ProgressResponse, error) {
	return f.progress(ctx, userID, days)
}

type fakeQuestions struct {
	create func(ctx context.Context, req *services.CreateQuestionRequest) (*models.Question, error)
	list   func(ctx context.Context, q *services.ListQuestionsQuery) (*models.QuestionListResponse, error)
}

func (f *fakeQuestions) Create(ctx context.Context, req *services.CreateQuestionRequest) (*models.Question, error) {
	return f.create(ctx, req)
}

func (f *fakeQuestions) List(ctx context.Context, q *services.ListQuestionsQuery) (*models.QuestionListResponse, error) {
	return f.list(ctx, q)
}

type fakeManager struct {
	sessions  *fakeSessions
	attempts  *fakeAttempts
	dashboard *fakeDashboard
	questions *fakeQuestions
	healthErr error
}

func (m *fakeManager) Session() services.SessionService     { return m.sessions }
func (m *fakeManager) Grading() services.GradingService     { return nil }
func (m *fakeManager) RateLimiter() services.RateLimiter    { return nil }
func (m *fakeManager) Attempt() services.AttemptService     { return m.attempts }
func (m *fakeManager) Dashboard() services.DashboardService { return m.dashboard }
func (m *fakeManager) Question() services.QuestionService   { return m.questions }
func (m *fakeManager) Initialize(context.Context) error     { return nil }
func (m *fakeManager) HealthCheck(context.Context) error    { return m.healthErr }
func (m *fakeManager) Shutdown(context.Context) error       { return nil }

// fakeAuth authenticates every request as a learner; an empty userID leaves the request anonymous.
func fakeAuth(userID string) gin.HandlerFunc {
	return fakeAuthAs(userID, models.RoleLearner)
}

func fakeAuthAs(userID string, role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
			c.Set("user_role", role)
		}
		c.Next()
	}
}

func newTestRouter(m *fakeManager, userID string) *gin.Engine {
	return newTestRouterAs(m, userID, models.RoleLearner)
}

func newTestRouterAs(m *fakeManager, userID string, role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if m.sessions == nil {
		m.sessions = &fakeSessions{}
	}
	if m.attempts == nil {
		m.attempts = &fakeAttempts{}
	}
	if m.dashboard == nil {
		m.dashboard = &fakeDashboard{}
	}
	if m.questions == nil {
		m.questions = &fakeQuestions{}
	}
	logger := discardLogger()
	router := gin.New()
	SetupMiddleware(router, logger, nil)
	NewHandlerManager(m, logger, fakeAuthAs(userID, role), nil, nil).SetupRoutes(router)
	return router
}
