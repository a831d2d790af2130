package timing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePrepare    Phase = "prepare"
	PhaseAnswering  Phase = "answering"
	PhaseSubmitting Phase = "submitting"
	PhaseDone       Phase = "done"
	PhaseError      Phase = "error"
)

// SubmitKind says what moved the attempt into submitting.
type SubmitKind string

const (
	SubmitAutoExpire SubmitKind = "auto-expire"
	SubmitUser       SubmitKind = "user-submit"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed in current phase")
	ErrBusy              = errors.New("another transition is in flight")
	ErrSkipNotAllowed    = errors.New("skipping is not allowed for this item")
)

// SessionRequest is what the controller asks the server for on start.
type SessionRequest struct {
	Section      models.Section
	QuestionType models.QuestionType
	QuestionID   uint
	PrepMs       int64
	AnswerMs     int64
}

// Submission is handed to the submit callback.
type Submission struct {
	Token   string
	Session models.SessionResponse
	Kind    SubmitKind
}

// PhaseChange is delivered to observers after every transition.
type PhaseChange struct {
	From Phase
	To   Phase
	Kind SubmitKind
	Err  error
}

type (
	SessionStarter func(ctx context.Context, req SessionRequest) (*models.SessionResponse, error)
	Submitter      func(ctx context.Context, sub Submission) error
)

// ControllerConfig wires an AttemptController. Clock defaults to the wall clock.
type ControllerConfig struct {
	Section      models.Section
	QuestionType models.QuestionType
	QuestionID   uint

	// Overrides for the catalogue timings
	PrepMs   *int64
	AnswerMs *int64

	AllowSkip     bool
	Clock         func() int64
	StartSession  SessionStarter
	Submit        Submitter
	OnPhaseChange func(PhaseChange)
}

// Times are the server-anchored boundaries of the current session.
type Times struct {
	StartAt       int64 `json:"startAt"`
	EndAt         int64 `json:"endAt"`
	PrepEndAt     int64 `json:"prepEndAt"`
	AnswerStartAt int64 `json:"answerStartAt"`
}

// AttemptController mirrors the server session on the client so countdowns and controls
// can be rendered. It is UX only: the server re-validates every submission.
type AttemptController struct {
	mu       sync.Mutex
	cfg      ControllerConfig
	prepMs   int64
	answerMs int64

	phase   Phase
	session *models.SessionResponse
	err     error
	busy    bool
}

func NewAttemptController(cfg ControllerConfig) (*AttemptController, error) {
	if cfg.StartSession == nil || cfg.Submit == nil {
		return nil, fmt.Errorf("attempt controller needs both a session starter and a submitter")
	}
	if cfg.Clock == nil {
		cfg.Clock = func() int64 { return time.Now().UnixMilli() }
	}

	def := For(cfg.Section, cfg.QuestionType)
	prep := def.PrepMs
	if cfg.PrepMs != nil {
		prep = *cfg.PrepMs
	}
	answer := def.WindowMs()
	if cfg.AnswerMs != nil {
		answer = *cfg.AnswerMs
	}
	if answer <= 0 {
		answer = DefaultAnswerMs
	}

	return &AttemptController{
		cfg:      cfg,
		prepMs:   max(0, prep),
		answerMs: answer,
		phase:    PhaseIdle,
	}, nil
}

func (c *AttemptController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Err is the error that moved the controller into PhaseError.
func (c *AttemptController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *AttemptController) Session() *models.SessionResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Start requests a session and enters prepare, or answering when there is no preparation.
func (c *AttemptController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, c.phase)
	}
	c.busy = true
	req := SessionRequest{
		Section:      c.cfg.Section,
		QuestionType: c.cfg.QuestionType,
		QuestionID:   c.cfg.QuestionID,
		PrepMs:       c.prepMs,
		AnswerMs:     c.answerMs,
	}
	c.mu.Unlock()

	session, err := c.cfg.StartSession(ctx, req)

	c.mu.Lock()
	c.busy = false
	from := c.phase
	if err != nil {
		c.err = fmt.Errorf("failed to start timed session: %w", err)
		c.phase = PhaseError
	} else {
		c.session = session
		c.err = nil
		c.phase = PhaseAnswering
		if c.prepMs > 0 {
			c.phase = PhasePrepare
		}
	}
	change := PhaseChange{From: from, To: c.phase, Err: c.err}
	c.mu.Unlock()

	c.notify(change)
	return err
}

// Tick advances timer-driven transitions. Call it from the render loop or a ticker.
func (c *AttemptController) Tick(ctx context.Context) error {
	c.mu.Lock()
	if c.busy || c.session == nil {
		c.mu.Unlock()
		return nil
	}
	now := c.cfg.Clock()
	times := c.timesLocked()

	if c.phase == PhasePrepare && now >= times.PrepEndAt {
		c.phase = PhaseAnswering
		c.mu.Unlock()
		c.notify(PhaseChange{From: PhasePrepare, To: PhaseAnswering})
		c.mu.Lock()
	}
	expired := c.phase == PhaseAnswering && now >= times.EndAt
	c.mu.Unlock()

	if expired {
		return c.submit(ctx, SubmitAutoExpire)
	}
	return nil
}

// Submit is the user action. It is only accepted while answering, or after a failed
// submission whose session the server may still accept.
func (c *AttemptController) Submit(ctx context.Context) error {
	return c.submit(ctx, SubmitUser)
}

func (c *AttemptController) submit(ctx context.Context, kind SubmitKind) error {
	c.mu.Lock()
	if c.busy || c.phase == PhaseSubmitting {
		c.mu.Unlock()
		return ErrBusy
	}
	retry := c.phase == PhaseError && c.session != nil
	if c.phase != PhaseAnswering && !retry {
		phase := c.phase
		c.mu.Unlock()
		return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, phase)
	}
	from := c.phase
	c.busy = true
	c.phase = PhaseSubmitting
	c.err = nil
	sub := Submission{Token: c.session.Token, Session: *c.session, Kind: kind}
	c.mu.Unlock()

	c.notify(PhaseChange{From: from, To: PhaseSubmitting, Kind: kind})
	err := c.cfg.Submit(ctx, sub)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.err = err
		c.phase = PhaseError
	} else {
		c.phase = PhaseDone
	}
	change := PhaseChange{From: PhaseSubmitting, To: c.phase, Kind: kind, Err: c.err}
	c.mu.Unlock()

	c.notify(change)
	return err
}

// Skip finishes the item without submitting.
func (c *AttemptController) Skip() error {
	c.mu.Lock()
	if !c.cfg.AllowSkip {
		c.mu.Unlock()
		return ErrSkipNotAllowed
	}
	if c.busy || c.phase == PhaseSubmitting || c.phase == PhaseDone {
		phase := c.phase
		c.mu.Unlock()
		return fmt.Errorf("%w: skip from %s", ErrInvalidTransition, phase)
	}
	from := c.phase
	c.phase = PhaseDone
	c.mu.Unlock()

	c.notify(PhaseChange{From: from, To: PhaseDone})
	return nil
}

// Reset returns an errored controller to idle and drops its session, so the next Start
// asks the server for a fresh token.
func (c *AttemptController) Reset() error {
	c.mu.Lock()
	if c.phase != PhaseError || c.busy {
		phase := c.phase
		c.mu.Unlock()
		return fmt.Errorf("%w: reset from %s", ErrInvalidTransition, phase)
	}
	c.phase = PhaseIdle
	c.session = nil
	c.err = nil
	c.mu.Unlock()

	c.notify(PhaseChange{From: PhaseError, To: PhaseIdle})
	return nil
}

// RemainingMs is the time left on the active countdown.
func (c *AttemptController) RemainingMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	now := c.cfg.Clock()
	t := c.timesLocked()
	switch c.phase {
	case PhasePrepare:
		return max(0, t.PrepEndAt-now)
	case PhaseAnswering:
		return max(0, t.EndAt-now)
	}
	return 0
}

// Times returns the boundaries of the current session, zero before Start.
func (c *AttemptController) Times() Times {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Times{}
	}
	return c.timesLocked()
}

// ControlsDisabled reports whether start/submit/skip buttons should be greyed out.
func (c *AttemptController) ControlsDisabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy || c.phase == PhaseSubmitting || c.phase == PhaseDone
}

// ShouldGuardNavigation is true while leaving the page would abandon a running countdown.
func (c *AttemptController) ShouldGuardNavigation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == PhasePrepare || c.phase == PhaseAnswering
}

// timesLocked prefers the boundaries the server sent and derives the rest.
func (c *AttemptController) timesLocked() Times {
	s := c.session
	t := Times{
		StartAt:       s.StartAt,
		EndAt:         s.EndAt,
		PrepEndAt:     s.PrepEndAt,
		AnswerStartAt: s.AnswerStartAt,
	}
	if t.PrepEndAt == 0 {
		t.PrepEndAt = s.StartAt + c.prepMs
	}
	if t.AnswerStartAt == 0 {
		t.AnswerStartAt = s.EndAt - c.answerMs
	}
	return t
}

func (c *AttemptController) notify(change PhaseChange) {
	if c.cfg.OnPhaseChange != nil && change.From != change.To {
		c.cfg.OnPhaseChange(change)
	}
}
