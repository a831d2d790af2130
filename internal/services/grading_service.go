package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/SAP-F-2025/pte-scoring-service/internal/grader"
	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/scoring"
)

type gradingService struct {
	registry *scoring.Registry
	panel    *grader.Panel
	logger   *slog.Logger
}

// NewGradingService scores locally through registry and consults panel, which may be nil
// or empty, for open-ended tasks and rationales.
func NewGradingService(registry *scoring.Registry, panel *grader.Panel, logger *slog.Logger) GradingService {
	if registry == nil {
		registry = scoring.NewRegistry()
	}
	return &gradingService{registry: registry, panel: panel, logger: logger}
}

func (s *gradingService) Grade(ctx context.Context, in GradeInput) (*GradeOutcome, error) {
	entry, ok := s.registry.Lookup(in.Type)
	if !ok {
		return nil, NewCodedError(CodeUnsupportedType, fmt.Sprintf("no scorer for %s", in.Type), nil)
	}

	switch entry.Kind {
	case scoring.KindDeterministic:
		return s.gradeDeterministic(ctx, in)
	case scoring.KindHeuristic:
		return s.gradeHeuristic(ctx, in)
	default:
		return s.gradeAIOnly(ctx, in)
	}
}

// ===== CLOSED-FORM TASKS =====

func (s *gradingService) gradeDeterministic(ctx context.Context, in GradeInput) (*GradeOutcome, error) {
	result, err := s.localScore(in)
	if err != nil {
		return nil, err
	}

	accuracy := accuracyPercent(result.Overall)
	outcome := &GradeOutcome{Result: result, Status: models.AttemptScored, Accuracy: &accuracy}

	// A perfect answer needs no explanation. The AI call never changes the numbers.
	if !in.WantRationale || result.Overall >= scoring.MaxScore || !s.panel.Enabled() {
		return outcome, nil
	}

	task := buildTask(in)
	task.Deterministic = result
	explained, err := s.panel.Grade(ctx, task)
	if err != nil {
		s.logger.InfoContext(ctx, "Rationale unavailable, keeping deterministic result",
			"question_id", in.Question.ID,
			"question_type", in.Type,
			"error", err)
		return outcome, nil
	}

	merged := result.Clone()
	merged.Rationale = joinRationales(result.Rationale, explained.Rationale)
	if merged.Metadata == nil {
		merged.Metadata = map[string]any{}
	}
	merged.Metadata["rationaleProviders"] = explained.Metadata["rationaleProviders"]
	outcome.Result = merged
	return outcome, nil
}

// ===== OPEN-ENDED TASKS =====

func (s *gradingService) gradeHeuristic(ctx context.Context, in GradeInput) (*GradeOutcome, error) {
	local, err := s.localScore(in)
	if err != nil {
		return nil, err
	}
	if !s.panel.Enabled() {
		return &GradeOutcome{Result: local, Status: models.AttemptPartial}, nil
	}

	ai, err := s.panel.Grade(ctx, buildTask(in))
	if err != nil {
		s.logger.WarnContext(ctx, "AI grader unavailable, using local estimate",
			"question_id", in.Question.ID,
			"question_type", in.Type,
			"error", err)
		return &GradeOutcome{Result: local, Status: models.AttemptPartial}, nil
	}

	ai.Metadata["local"] = local.Metadata
	ai.Metadata["task"] = local.Metadata["task"]
	return &GradeOutcome{Result: ai, Status: models.AttemptScored}, nil
}

func (s *gradingService) gradeAIOnly(ctx context.Context, in GradeInput) (*GradeOutcome, error) {
	ai, err := s.panel.Grade(ctx, buildTask(in))
	if err != nil {
		return &GradeOutcome{Status: models.AttemptPendingGrade},
			NewCodedError(CodeGraderUnavailable, "Scoring is temporarily unavailable for this task", err)
	}
	ai.Metadata["task"] = models.TaskName(in.Section, in.Type)
	return &GradeOutcome{Result: ai, Status: models.AttemptScored}, nil
}

// ===== HELPERS =====

func (s *gradingService) localScore(in GradeInput) (*models.ScoringResult, error) {
	result, err := s.registry.Score(in.Section, in.Type, in.Response, in.Key)
	if err != nil {
		if errors.Is(err, scoring.ErrResponseShape) {
			return nil, NewCodedError(CodeValidation, "Response shape does not match the question type", err)
		}
		return nil, fmt.Errorf("failed to score %s: %w", in.Type, err)
	}
	return result, nil
}

func buildTask(in GradeInput) grader.Task {
	task := grader.Task{
		Section:      in.Section,
		QuestionType: in.Type,
		Response:     responseText(in.Response),
	}
	if in.Question != nil {
		task.Prompt = in.Question.Prompt
	}
	if in.Key != nil {
		task.Reference = in.Key.Reference
		task.MinWords, task.MaxWords = in.Key.MinWords, in.Key.MaxWords
	}
	if task.MinWords == 0 && task.MaxWords == 0 {
		if r, ok := scoring.ExpectedLength(in.Type); ok && in.Type != models.WriteFromDictation {
			task.MinWords, task.MaxWords = r.Min, r.Max
		}
	}
	return task
}

// responseText renders a response the way a human examiner would read it.
func responseText(resp models.UserResponse) string {
	switch r := resp.(type) {
	case models.TextResponse:
		return r.TextAnswer
	case models.SpokenResponse:
		return r.Transcript
	case models.SingleChoiceResponse:
		return r.SelectedOption
	case models.MultiChoiceResponse:
		return strings.Join(r.SelectedOptions, ", ")
	case models.OrderResponse:
		return strings.Join(r.Order, " -> ")
	case models.BlanksResponse:
		keys := make([]string, 0, len(r.Answers))
		for k := range r.Answers {
			keys = append(keys, k)
		}
		sortBlankKeys(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, r.Answers[k])
		}
		return strings.Join(parts, "; ")
	case models.IndicesResponse:
		parts := make([]string, len(r.Indices))
		for i, idx := range r.Indices {
			parts[i] = fmt.Sprint(idx)
		}
		return "selected word positions " + strings.Join(parts, ", ")
	default:
		return ""
	}
}

func accuracyPercent(overall int) float64 {
	return math.Round(float64(overall)/scoring.MaxScore*1000) / 10
}

func joinRationales(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
