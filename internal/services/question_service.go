package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/pte-scoring-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) QuestionService {
	return &questionService{repo: repo, logger: logger, validator: v}
}

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest) (*models.Question, error) {
	if req == nil {
		return nil, NewCodedError(CodeBadRequest, "Request body is required", nil)
	}
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if !req.Section.Supports(req.Type) {
		return nil, NewCodedError(CodeUnsupportedType,
			fmt.Sprintf("question type %s is not part of the %s section", req.Type, req.Section), nil)
	}

	key, err := json.Marshal(req.AnswerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer key: %w", err)
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	question := &models.Question{
		Section:    req.Section,
		Type:       req.Type,
		Title:      req.Title,
		Prompt:     req.Prompt,
		AnswerKey:  key,
		Transcript: req.Transcript,
		AudioURL:   req.AudioURL,
		ImageURL:   req.ImageURL,
		Difficulty: difficulty,
		IsActive:   true,
	}
	if len(req.Options) > 0 {
		question.Options = []byte(req.Options)
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Question created",
		"question_id", question.ID,
		"section", question.Section,
		"question_type", question.Type)
	return question, nil
}

func (s *questionService) List(ctx context.Context, query *ListQuestionsQuery) (*models.QuestionListResponse, error) {
	if query == nil {
		query = &ListQuestionsQuery{}
	}
	if errs := s.validator.Validate(query); len(errs) > 0 {
		return nil, errs
	}
	page, pageSize := normalizePaging(query.Page, query.PageSize)

	filters := repositories.QuestionFilters{
		ActiveOnly: !query.IncludeInactive,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
		SortBy:     "id",
		SortOrder:  "asc",
	}
	if query.Section != "" {
		section := models.Section(query.Section)
		filters.Section = &section
	}
	if query.Type != "" {
		qt := models.QuestionType(query.Type)
		filters.Type = &qt
	}
	if query.Difficulty != "" {
		d := models.DifficultyLevel(query.Difficulty)
		filters.Difficulty = &d
	}

	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return &models.QuestionListResponse{
		Data:       questions,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// loadItemQuestion fetches a question and confirms it can be attempted as the given
// section and type. Every rejection happens before any scoring or token use.
func loadItemQuestion(ctx context.Context, repo repositories.Repository, section models.Section, qt models.QuestionType, questionID uint) (*models.Question, error) {
	if !section.IsValid() {
		return nil, NewCodedError(CodeBadRequest, fmt.Sprintf("unknown section %q", section), nil)
	}
	if !section.Supports(qt) {
		return nil, NewCodedError(CodeUnsupportedType,
			fmt.Sprintf("question type %s is not part of the %s section", qt, section), nil)
	}

	question, err := repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewCodedError(CodeNotFound, "Question not found", errors.Join(ErrQuestionNotFound, err))
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if question.Section != section || question.Type != qt {
		return nil, NewCodedError(CodeTypeMismatch, "Type mismatch with question", nil).WithDetails(map[string]any{
			"questionSection": question.Section,
			"questionType":    question.Type,
		})
	}
	if !question.IsActive {
		return nil, NewCodedError(CodeInactiveQuestion, "Question is not active", nil)
	}
	return question, nil
}
