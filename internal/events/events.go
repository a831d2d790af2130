// Package events publishes domain events about sessions and scored attempts.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "pte-scoring-service"
	EventVersion = "1.0"
)

// Event types
const (
	TypeAttemptScored  = "attempt.scored"
	TypeSessionStarted = "session.started"
)

// Event is the envelope written to the broker.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

func NewEvent(eventType string, data any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// AttemptScoredEvent is the payload of attempt.scored.
type AttemptScoredEvent struct {
	AttemptID    uint           `json:"attemptId"`
	UserID       string         `json:"userId"`
	QuestionID   uint           `json:"questionId"`
	Section      string         `json:"section"`
	QuestionType string         `json:"questionType"`
	Status       string         `json:"status"`
	Overall      int            `json:"overall"`
	Subscores    map[string]int `json:"subscores"`
	Provider     string         `json:"provider,omitempty"`
	TimeTaken    *int           `json:"timeTaken,omitempty"`
	ScoredAt     time.Time      `json:"scoredAt"`
}

// SessionStartedEvent is the payload of session.started. The token is never published.
type SessionStartedEvent struct {
	UserID       string `json:"userId"`
	Section      string `json:"section"`
	QuestionType string `json:"questionType"`
	QuestionID   uint   `json:"questionId,omitempty"`
	StartAt      int64  `json:"startAt"`
	EndAt        int64  `json:"endAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}
