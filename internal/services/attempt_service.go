package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/pte-scoring-service/internal/cache"
	"github.com/SAP-F-2025/pte-scoring-service/internal/events"
	"github.com/SAP-F-2025/pte-scoring-service/internal/metrics"
	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/pte-scoring-service/internal/scoring"
	"github.com/SAP-F-2025/pte-scoring-service/internal/validator"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

type attemptService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	logger    *slog.Logger
	validator *validator.Validator
	sessions  SessionService
	grading   GradingService
	limiter   RateLimiter
	publisher events.EventPublisher
	metrics   *metrics.Metrics
	topic     string
	now       func() time.Time
}

// AttemptDeps groups the collaborators of the attempt service
type AttemptDeps struct {
	Sessions  SessionService
	Grading   GradingService
	Limiter   RateLimiter
	Cache     *cache.CacheManager
	Publisher events.EventPublisher
	Metrics   *metrics.Metrics
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, deps AttemptDeps, cfg Config) AttemptService {
	if deps.Cache == nil {
		deps.Cache = cache.NewCacheManager(nil)
	}
	return &attemptService{
		repo:      repo,
		cache:     deps.Cache,
		logger:    logger,
		validator: validator,
		sessions:  deps.Sessions,
		grading:   deps.Grading,
		limiter:   deps.Limiter,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		topic:     cfg.EventTopic,
		now:       cfg.clock(),
	}
}

// ===== SCORING =====

// Score validates, checks the hourly limit, redeems the session token, scores and
// persists. Nothing is persisted when validation or the timing check fails.
func (s *attemptService) Score(ctx context.Context, section models.Section, req *ScoreAttemptRequest, userID string) (*models.AttemptResponse, error) {
	if userID == "" {
		return nil, NewCodedError(CodeUnauthorized, "User not authenticated", nil)
	}
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	decision, err := s.limiter.Check(ctx, userID, section)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, rateLimitedError(section, decision)
	}

	question, err := loadItemQuestion(ctx, s.repo, section, req.Type, req.QuestionID)
	if err != nil {
		return nil, err
	}

	resp, err := models.DecodeUserResponse(req.Type, req.UserResponse)
	if err != nil {
		return nil, NewCodedError(CodeValidation, "Malformed user response", err)
	}
	if errs := s.validator.ValidateUserResponse(req.Type, resp); len(errs) > 0 {
		return nil, errs
	}

	key, err := question.DecodeAnswerKey()
	if err != nil {
		return nil, fmt.Errorf("failed to load answer key: %w", err)
	}

	if _, err := s.sessions.Redeem(ctx, RedeemRequest{
		Token:        req.SessionToken,
		UserID:       userID,
		Section:      section,
		QuestionType: req.Type,
		QuestionID:   req.QuestionID,
	}); err != nil {
		return nil, err
	}

	outcome, gradeErr := s.grading.Grade(ctx, GradeInput{
		Question:      question,
		Key:           key,
		Section:       section,
		Type:          req.Type,
		Response:      resp,
		WantRationale: req.WantsRationale(),
	})
	if gradeErr != nil && (outcome == nil || !errors.Is(gradeErr, ErrGraderUnavailable)) {
		return nil, gradeErr
	}

	attempt, err := s.newAttempt(section, req, userID, outcome)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to save attempt: %w", err)
	}
	cache.InvalidateAttemptCache(ctx, s.cache, userID)

	s.metrics.AttemptScored(string(section), string(req.Type), string(attempt.Status), attempt.Overall)
	s.logger.InfoContext(ctx, "Attempt scored",
		"attempt_id", attempt.ID,
		"user_id", userID,
		"section", section,
		"question_type", req.Type,
		"status", attempt.Status,
		"overall", attempt.Overall,
		"provider", outcome.Result.Provider())

	// the learner's answer is kept; scoring is retried out of band
	if gradeErr != nil {
		var coded *CodedError
		if errors.As(gradeErr, &coded) {
			coded.WithDetails(map[string]any{"attemptId": attempt.ID, "status": attempt.Status})
		}
		return nil, gradeErr
	}

	s.publishScored(ctx, attempt, outcome.Result)

	return &models.AttemptResponse{
		Attempt:  attempt,
		Scores:   outcome.Result,
		Feedback: scoring.BuildFeedback(outcome.Result),
	}, nil
}

// ===== READS =====

func (s *attemptService) GetByID(ctx context.Context, id uint, userID string) (*models.AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewCodedError(CodeNotFound, "Attempt not found", ErrAttemptNotFound)
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, NewPermissionError(userID, id, "attempt", "read", "not owner")
	}

	result, err := decodeScores(attempt)
	if err != nil {
		return nil, err
	}
	return &models.AttemptResponse{
		Attempt:  attempt,
		Scores:   result,
		Feedback: scoring.BuildFeedback(result),
	}, nil
}

func (s *attemptService) List(ctx context.Context, section models.Section, query *ListAttemptsQuery, userID string) (*models.AttemptListResponse, error) {
	if userID == "" {
		return nil, NewCodedError(CodeUnauthorized, "User not authenticated", nil)
	}
	if !section.IsValid() {
		return nil, NewCodedError(CodeBadRequest, fmt.Sprintf("unknown section %q", section), nil)
	}
	if query == nil {
		query = &ListAttemptsQuery{}
	}
	page, pageSize := normalizePaging(query.Page, query.PageSize)

	filters := repositories.AttemptFilters{
		UserID:     userID,
		Section:    &section,
		QuestionID: query.QuestionID,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
		SortBy:     "created_at",
		SortOrder:  "desc",
	}

	var out models.AttemptListResponse
	err := s.cache.Attempt.CacheOrExecute(ctx, listCacheKey(userID, section, query.QuestionID, page, pageSize), &out,
		cache.AttemptCacheConfig.TTL, func() (any, error) {
			attempts, total, err := s.repo.Attempt().List(ctx, nil, filters)
			if err != nil {
				return nil, err
			}
			return &models.AttemptListResponse{
				Data:       attempts,
				Total:      total,
				Page:       page,
				PageSize:   pageSize,
				TotalPages: totalPages(total, pageSize),
			}, nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return &out, nil
}

func (s *attemptService) Export(ctx context.Context, userID string, section *models.Section) ([]*models.Attempt, error) {
	if userID == "" {
		return nil, NewCodedError(CodeUnauthorized, "User not authenticated", nil)
	}
	if section != nil && !section.IsValid() {
		return nil, NewCodedError(CodeBadRequest, fmt.Sprintf("unknown section %q", *section), nil)
	}

	var all []*models.Attempt
	filters := repositories.AttemptFilters{
		UserID:    userID,
		Section:   section,
		Limit:     maxPageSize,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
	for {
		batch, total, err := s.repo.Attempt().List(ctx, nil, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to export attempts: %w", err)
		}
		all = append(all, batch...)
		filters.Offset += len(batch)
		if len(batch) == 0 || int64(filters.Offset) >= total {
			break
		}
	}
	return all, nil
}

// ===== HELPERS =====

func (s *attemptService) newAttempt(section models.Section, req *ScoreAttemptRequest, userID string, outcome *GradeOutcome) (*models.Attempt, error) {
	attempt := &models.Attempt{
		UserID:       userID,
		QuestionID:   req.QuestionID,
		Section:      section,
		Type:         req.Type,
		Status:       outcome.Status,
		UserResponse: datatypes.JSON(req.UserResponse),
		TimeTaken:    req.TimeTaken,
		SessionToken: &req.SessionToken,
		Accuracy:     outcome.Accuracy,
		CreatedAt:    s.now(),
	}

	if len(req.Timings) > 0 {
		raw, err := json.Marshal(req.Timings)
		if err != nil {
			return nil, NewCodedError(CodeValidation, "Malformed timings", err)
		}
		attempt.Timings = raw
	}

	if outcome.Result == nil {
		outcome.Result = &models.ScoringResult{Subscores: map[string]int{}}
	}
	scores, err := json.Marshal(outcome.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scores: %w", err)
	}
	attempt.Scores = scores
	attempt.Overall = outcome.Result.Overall
	return attempt, nil
}

func (s *attemptService) publishScored(ctx context.Context, attempt *models.Attempt, result *models.ScoringResult) {
	publish(ctx, s.logger, s.publisher, s.topic, events.NewEvent(events.TypeAttemptScored, events.AttemptScoredEvent{
		AttemptID:    attempt.ID,
		UserID:       attempt.UserID,
		QuestionID:   attempt.QuestionID,
		Section:      string(attempt.Section),
		QuestionType: string(attempt.Type),
		Status:       string(attempt.Status),
		Overall:      result.Overall,
		Subscores:    result.Subscores,
		Provider:     result.Provider(),
		TimeTaken:    attempt.TimeTaken,
		ScoredAt:     attempt.CreatedAt,
	}))
}
