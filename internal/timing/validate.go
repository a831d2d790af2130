package timing

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

// DefaultGraceMs absorbs network latency between the client timer firing and the request
// reaching the server.
const DefaultGraceMs int64 = 2000

var (
	ErrTooEarly     = errors.New("submission arrived before the session window opened")
	ErrWindowClosed = errors.New("submission arrived after the session window closed")
	ErrNoSession    = errors.New("no timed session")
)

// Window is a granted [StartAt, EndAt] interval.
type Window struct {
	StartAt int64 `json:"startAt"`
	EndAt   int64 `json:"endAt"`
}

// NewWindow opens a window at nowMs covering preparation and answering.
func NewWindow(nowMs, prepMs, answerMs int64) Window {
	return Window{
		StartAt: nowMs,
		EndAt:   EndAtFrom(nowMs, max(0, prepMs)+max(0, answerMs)),
	}
}

// Validate checks a server-clock timestamp against the window.
func (w Window) Validate(nowMs, graceMs int64) error {
	if graceMs < 0 {
		graceMs = 0
	}
	if nowMs < w.StartAt {
		return fmt.Errorf("%w: %d ms early", ErrTooEarly, w.StartAt-nowMs)
	}
	if nowMs > w.EndAt+graceMs {
		return fmt.Errorf("%w: %d ms late", ErrWindowClosed, nowMs-w.EndAt)
	}
	return nil
}

// ValidateTiming is the authoritative anti-tamper check. nowMs must come from the server
// clock; client-reported times are never consulted.
func ValidateTiming(session *models.AttemptSession, nowMs, graceMs int64) error {
	if session == nil {
		return ErrNoSession
	}
	return Window{StartAt: session.StartAt, EndAt: session.EndAt}.Validate(nowMs, graceMs)
}
