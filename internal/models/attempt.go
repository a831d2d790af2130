package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptScored       AttemptStatus = "scored"
	AttemptPartial      AttemptStatus = "partial" // deterministic score only, AI grader unavailable
	AttemptPendingGrade AttemptStatus = "pending"
)

// Attempt is one scored submission for one question.
type Attempt struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	UserID     string        `json:"user_id" gorm:"not null;index;size:255"`
	QuestionID uint          `json:"question_id" gorm:"not null;index"`
	Section    Section       `json:"section" gorm:"not null;index;size:20"`
	Type       QuestionType  `json:"type" gorm:"not null;size:64"`
	Status     AttemptStatus `json:"status" gorm:"default:scored;index;size:20"`

	// Submission
	UserResponse datatypes.JSON `json:"user_response" gorm:"type:jsonb"`
	TimeTaken    *int           `json:"time_taken"` // seconds
	Timings      datatypes.JSON `json:"timings" gorm:"type:jsonb"`
	SessionToken *string        `json:"-" gorm:"size:64;index"`

	// Scoring
	Overall  int            `json:"overall"`
	Accuracy *float64       `json:"accuracy"` // percent, closed-form tasks only
	Scores   datatypes.JSON `json:"scores" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}
