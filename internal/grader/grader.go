// Package grader talks to LLM-backed graders for open-ended tasks and reconciles their
// answers onto the 0-90 scale.
package grader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

//go:generate mockgen -source=./grader.go -destination=./mocks/grader.mock.go -package=gradermocks Grader

// ErrGraderUnavailable means no grader produced a usable score in time.
var ErrGraderUnavailable = errors.New("grader unavailable")

// Task is what a grader is asked to assess.
type Task struct {
	Section      models.Section
	QuestionType models.QuestionType
	Prompt       string
	Reference    string // model answer, transcript or passage when the task has one
	Response     string // learner text, or the transcript for speaking
	MinWords     int
	MaxWords     int

	// Deterministic is set for closed-form tasks where the grader only explains the
	// score; its numbers are never used.
	Deterministic *models.ScoringResult
}

// RationaleOnly reports whether the grader is asked for an explanation only.
func (t Task) RationaleOnly() bool {
	return t.Deterministic != nil
}

type Grader interface {
	Name() string
	Grade(ctx context.Context, task Task) (*models.ProviderRawScore, error)
}

// gradeReply is the JSON object graders are instructed to return
type gradeReply struct {
	Overall   *float64            `json:"overall"`
	Subscores models.RawSubscores `json:"subscores"`
	Rationale string              `json:"rationale"`
}

// decodeReply extracts the first JSON object from a model reply. Models that ignore the
// JSON response format tend to wrap it in prose or code fences.
func decodeReply(raw, provider, model string) (*models.ProviderRawScore, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%s reply has no JSON object", provider)
	}

	var reply gradeReply
	if err := json.Unmarshal([]byte(raw[start:end+1]), &reply); err != nil {
		return nil, fmt.Errorf("failed to parse %s reply: %w", provider, err)
	}
	if reply.Overall == nil && len(reply.Subscores) == 0 && strings.TrimSpace(reply.Rationale) == "" {
		return nil, fmt.Errorf("%s reply carries neither scores nor rationale", provider)
	}

	return &models.ProviderRawScore{
		Overall:   reply.Overall,
		Subscores: reply.Subscores,
		Rationale: strings.TrimSpace(reply.Rationale),
		Meta:      &models.ProviderMeta{Provider: provider, Model: model},
	}, nil
}
