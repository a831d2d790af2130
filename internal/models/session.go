package models

import "time"

// AttemptSession is the server-issued timing contract for one timed item. Timestamps are
// epoch milliseconds.
type AttemptSession struct {
	Token        string       `json:"token" gorm:"primaryKey;size:64"`
	UserID       string       `json:"user_id" gorm:"not null;index;size:255"`
	Section      Section      `json:"section" gorm:"not null;size:20"`
	QuestionType QuestionType `json:"question_type" gorm:"not null;size:64"`
	QuestionID   uint         `json:"question_id" gorm:"not null;index"`

	StartAt  int64 `json:"start_at" gorm:"not null"`
	EndAt    int64 `json:"end_at" gorm:"not null"`
	PrepMs   int64 `json:"prep_ms"`
	AnswerMs int64 `json:"answer_ms"`

	ConsumedAt *time.Time `json:"consumed_at" gorm:"index"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (AttemptSession) TableName() string {
	return "attempt_sessions"
}

// PrepEndAt is when the preparation countdown ends.
func (s *AttemptSession) PrepEndAt() int64 {
	return s.StartAt + s.PrepMs
}

// AnswerStartAt is when the answering countdown begins.
func (s *AttemptSession) AnswerStartAt() int64 {
	return s.EndAt - s.AnswerMs
}

func (s *AttemptSession) IsConsumed() bool {
	return s.ConsumedAt != nil
}
