package validator

import (
	"encoding/json"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

// StartSessionRequest asks for a timed window on one item. Prep and answer default to the
// timing catalogue when omitted.
type StartSessionRequest struct {
	Section      models.Section      `json:"section" validate:"required,pte_section"`
	QuestionType models.QuestionType `json:"questionType" validate:"required,question_type"`
	QuestionID   uint                `json:"questionId" validate:"required"`
	PrepMs       *int64              `json:"prepMs" validate:"omitempty,window_ms"`
	AnswerMs     *int64              `json:"answerMs" validate:"omitempty,window_ms"`
}

// ScoreAttemptRequest is the body of POST /{section}/attempts.
type ScoreAttemptRequest struct {
	QuestionID       uint                `json:"questionId" validate:"required"`
	Type             models.QuestionType `json:"type" validate:"required,question_type"`
	UserResponse     json.RawMessage     `json:"userResponse" validate:"required"`
	TimeTaken        *int                `json:"timeTaken" validate:"omitempty,min=1,max=3600"`
	Timings          map[string]any      `json:"timings"`
	SessionToken     string              `json:"sessionToken" validate:"required,max=64"`
	IncludeRationale *bool               `json:"includeRationale"`
}

// WantsRationale defaults to true.
func (r *ScoreAttemptRequest) WantsRationale() bool {
	return r.IncludeRationale == nil || *r.IncludeRationale
}

// ListAttemptsQuery binds the attempt listing query string.
type ListAttemptsQuery struct {
	Page       int   `form:"page" validate:"omitempty,min=1"`
	PageSize   int   `form:"pageSize" validate:"omitempty,min=1,max=100"`
	QuestionID *uint `form:"questionId"`
}

// CreateQuestionRequest is the body of POST /questions. The answer key is stored as given
// and never returned to learners. New questions are active.
type CreateQuestionRequest struct {
	Section    models.Section         `json:"section" validate:"required,pte_section"`
	Type       models.QuestionType    `json:"type" validate:"required,question_type"`
	Title      string                 `json:"title" validate:"required,max=255"`
	Prompt     string                 `json:"prompt"`
	Options    json.RawMessage        `json:"options"`
	AnswerKey  models.AnswerKey       `json:"answerKey"`
	Transcript *string                `json:"transcript"`
	AudioURL   *string                `json:"audioUrl" validate:"omitempty,url,max=500"`
	ImageURL   *string                `json:"imageUrl" validate:"omitempty,url,max=500"`
	Difficulty models.DifficultyLevel `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// ListQuestionsQuery binds the question catalogue query string.
type ListQuestionsQuery struct {
	Page            int    `form:"page" validate:"omitempty,min=1"`
	PageSize        int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	Section         string `form:"section" validate:"omitempty,pte_section"`
	Type            string `form:"type" validate:"omitempty,question_type"`
	Difficulty      string `form:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	IncludeInactive bool   `form:"includeInactive"`
}
