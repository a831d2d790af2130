package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/pte-scoring-service/internal/events"
	"github.com/SAP-F-2025/pte-scoring-service/internal/metrics"
	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/pte-scoring-service/internal/timing"
	"github.com/SAP-F-2025/pte-scoring-service/internal/validator"
)

// Violation reasons reported in metrics and error details
const (
	violationUnknown  = "unknown_token"
	violationConsumed = "consumed"
	violationMismatch = "item_mismatch"
	violationEarly    = "early"
	violationLate     = "late"
)

type sessionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	metrics   *metrics.Metrics
	topic     string
	graceMs   int64
	now       func() time.Time
}

func NewSessionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, m *metrics.Metrics, cfg Config) SessionService {
	return &sessionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		metrics:   m,
		topic:     cfg.EventTopic,
		graceMs:   cfg.TimingGrace.Milliseconds(),
		now:       cfg.clock(),
	}
}

// Start opens a window of prep+answer milliseconds starting now on the server clock.
func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest, userID string) (*models.SessionResponse, error) {
	if userID == "" {
		return nil, NewCodedError(CodeUnauthorized, "User not authenticated", nil)
	}
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if _, err := loadItemQuestion(ctx, s.repo, req.Section, req.QuestionType, req.QuestionID); err != nil {
		return nil, err
	}

	item := timing.For(req.Section, req.QuestionType)
	prepMs, answerMs := item.PrepMs, item.WindowMs()
	if req.PrepMs != nil {
		prepMs = *req.PrepMs
	}
	if req.AnswerMs != nil && *req.AnswerMs > 0 {
		answerMs = *req.AnswerMs
	}

	nowMs := s.now().UnixMilli()
	window := timing.NewWindow(nowMs, prepMs, answerMs)
	session := &models.AttemptSession{
		Token:        uuid.NewString(),
		UserID:       userID,
		Section:      req.Section,
		QuestionType: req.QuestionType,
		QuestionID:   req.QuestionID,
		StartAt:      window.StartAt,
		EndAt:        window.EndAt,
		PrepMs:       prepMs,
		AnswerMs:     answerMs,
	}
	if err := s.repo.Session().Create(ctx, session); err != nil {
		return nil, err
	}

	s.metrics.SessionStarted(string(req.Section))
	s.logger.InfoContext(ctx, "Timed session started",
		"user_id", userID,
		"section", req.Section,
		"question_type", req.QuestionType,
		"question_id", req.QuestionID,
		"window_ms", window.EndAt-window.StartAt)

	publish(ctx, s.logger, s.publisher, s.topic, events.NewEvent(events.TypeSessionStarted, events.SessionStartedEvent{
		UserID:       userID,
		Section:      string(req.Section),
		QuestionType: string(req.QuestionType),
		QuestionID:   req.QuestionID,
		StartAt:      session.StartAt,
		EndAt:        session.EndAt,
	}))

	return &models.SessionResponse{
		Token:         session.Token,
		StartAt:       session.StartAt,
		EndAt:         session.EndAt,
		PrepEndAt:     session.PrepEndAt(),
		AnswerStartAt: session.AnswerStartAt(),
		PrepMs:        prepMs,
		AnswerMs:      answerMs,
		ServerNow:     nowMs,
		Label:         timing.FormatLabel(req.Section, req.QuestionType),
	}, nil
}

// Redeem consumes first and checks the window second, so a late or early submit still
// burns the token.
func (s *sessionService) Redeem(ctx context.Context, req RedeemRequest) (*models.AttemptSession, error) {
	if req.Token == "" {
		return nil, s.violation(ctx, violationUnknown, "Session token is required", nil)
	}

	session, err := s.repo.Session().Consume(ctx, req.Token, req.UserID)
	switch {
	case errors.Is(err, repositories.ErrSessionNotFound):
		return nil, s.violation(ctx, violationUnknown, "Unknown or expired session token", err)
	case errors.Is(err, repositories.ErrSessionConsumed):
		return nil, s.violation(ctx, violationConsumed, "Session token already used", err)
	case err != nil:
		return nil, err
	}

	if session.Section != req.Section || session.QuestionType != req.QuestionType ||
		(session.QuestionID != 0 && session.QuestionID != req.QuestionID) {
		return nil, s.violation(ctx, violationMismatch, "Session token was issued for a different item", nil)
	}

	if err := timing.ValidateTiming(session, s.now().UnixMilli(), s.graceMs); err != nil {
		if errors.Is(err, timing.ErrTooEarly) {
			return nil, s.violation(ctx, violationEarly, "Submission before the session window opened", err)
		}
		return nil, s.violation(ctx, violationLate, "Submission after the session window closed", err)
	}
	return session, nil
}

func (s *sessionService) violation(ctx context.Context, reason, message string, cause error) error {
	s.metrics.TimingViolation(reason)
	s.logger.WarnContext(ctx, "Timing violation", "reason", reason, "error", cause)
	return NewCodedError(CodeTimingViolation, message, cause).WithDetails(map[string]any{"reason": reason})
}

// publish never fails the caller; a lost event is logged.
func publish(ctx context.Context, logger *slog.Logger, publisher events.EventPublisher, topic string, event *events.Event) {
	if publisher == nil || topic == "" {
		return
	}
	if err := publisher.Publish(ctx, topic, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}
