package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/pte-scoring-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type StartSessionRequest = validator.StartSessionRequest
type ScoreAttemptRequest = validator.ScoreAttemptRequest
type ListAttemptsQuery = validator.ListAttemptsQuery
type CreateQuestionRequest = validator.CreateQuestionRequest
type ListQuestionsQuery = validator.ListQuestionsQuery

// RedeemRequest identifies the item a session token is being spent on
type RedeemRequest struct {
	Token        string
	UserID       string
	Section      models.Section
	QuestionType models.QuestionType
	QuestionID   uint
}

// GradeInput is one decoded, validated submission ready for scoring
type GradeInput struct {
	Question      *models.Question
	Key           *models.AnswerKey
	Section       models.Section
	Type          models.QuestionType
	Response      models.UserResponse
	WantRationale bool
}

type GradeOutcome struct {
	Result   *models.ScoringResult
	Status   models.AttemptStatus
	Accuracy *float64 // percent, closed-form tasks only
}

// RateDecision is the outcome of an hourly limit check
type RateDecision struct {
	Allowed    bool          `json:"allowed"`
	Limit      int           `json:"limit"`
	Count      int64         `json:"count"`
	RetryAfter time.Duration `json:"-"`
}

type ProgressResponse struct {
	UserID   string                        `json:"userId"`
	Days     int                           `json:"days"`
	Total    int64                         `json:"totalAttempts"`
	Sections []repositories.SectionSummary `json:"sections"`
	Activity []repositories.DailyActivity  `json:"activity"`
	Streak   int                           `json:"streak"`
}

// ===== SERVICES =====

// SessionService issues and redeems timed-session tokens
type SessionService interface {
	Start(ctx context.Context, req *StartSessionRequest, userID string) (*models.SessionResponse, error)

	// Redeem consumes the token and checks it against the server clock. Every failure is a
	// TIMING_VIOLATION.
	Redeem(ctx context.Context, req RedeemRequest) (*models.AttemptSession, error)
}

// GradingService turns a validated submission into a score
type GradingService interface {
	Grade(ctx context.Context, in GradeInput) (*GradeOutcome, error)
}

// RateLimiter enforces the per-section hourly submission limits
type RateLimiter interface {
	Check(ctx context.Context, userID string, section models.Section) (*RateDecision, error)
}

type AttemptService interface {
	Score(ctx context.Context, section models.Section, req *ScoreAttemptRequest, userID string) (*models.AttemptResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*models.AttemptResponse, error)
	List(ctx context.Context, section models.Section, query *ListAttemptsQuery, userID string) (*models.AttemptListResponse, error)

	// Export returns every attempt of the user, optionally limited to one section
	Export(ctx context.Context, userID string, section *models.Section) ([]*models.Attempt, error)
}

type DashboardService interface {
	GetProgress(ctx context.Context, userID string, days int) (*ProgressResponse, error)
}

// QuestionService maintains the question catalogue. Learners only ever see active questions
// and never the answer key.
type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest) (*models.Question, error)
	List(ctx context.Context, query *ListQuestionsQuery) (*models.QuestionListResponse, error)
}

// ServiceManager owns service construction and lifecycle
type ServiceManager interface {
	Session() SessionService
	Grading() GradingService
	RateLimiter() RateLimiter
	Attempt() AttemptService
	Dashboard() DashboardService
	Question() QuestionService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
