package grader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SAP-F-2025/pte-scoring-service/internal/metrics"
	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/scoring"
)

const DefaultTimeout = 8 * time.Second

// Panel fans a task out to every configured grader and merges whatever comes back before
// the deadline. A grader that errors or times out is left out of the merge.
type Panel struct {
	graders []Grader
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewPanel(graders []Grader, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Panel {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Panel{graders: graders, timeout: timeout, logger: logger, metrics: m}
}

// Enabled reports whether at least one grader is configured.
func (p *Panel) Enabled() bool {
	return p != nil && len(p.graders) > 0
}

// Providers lists the configured grader names.
func (p *Panel) Providers() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.graders))
	for i, g := range p.graders {
		names[i] = g.Name()
	}
	return names
}

// Grade returns the merged score of all graders that answered in time, or
// ErrGraderUnavailable when none did.
func (p *Panel) Grade(ctx context.Context, task Task) (*models.ScoringResult, error) {
	if !p.Enabled() {
		return nil, ErrGraderUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		replies = make([]*models.ProviderRawScore, len(p.graders))
		errs    []error
	)

	// graders never return an error to the group so one failure does not cancel the rest
	g, gctx := errgroup.WithContext(ctx)
	for i, gr := range p.graders {
		g.Go(func() error {
			started := time.Now()
			raw, err := gr.Grade(gctx, task)
			took := time.Since(started)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcome := "error"
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(gctx.Err(), context.DeadlineExceeded) {
					outcome = "timeout"
				}
				p.metrics.GraderResult(gr.Name(), outcome, took)
				p.logger.WarnContext(ctx, "Grader failed",
					"provider", gr.Name(),
					"outcome", outcome,
					"took", took,
					"error", err)
				errs = append(errs, fmt.Errorf("%s: %w", gr.Name(), err))
				return nil
			}
			// a reply without numbers only counts when the numbers come from elsewhere
			if raw == nil || (!task.RationaleOnly() && !raw.HasScores()) {
				p.metrics.GraderResult(gr.Name(), "empty", took)
				p.logger.WarnContext(ctx, "Grader returned no scores",
					"provider", gr.Name(),
					"took", took)
				return nil
			}
			if raw.Meta == nil {
				raw.Meta = &models.ProviderMeta{Provider: gr.Name()}
			}
			p.metrics.GraderResult(gr.Name(), "ok", took)
			replies[i] = raw
			return nil
		})
	}
	_ = g.Wait()

	// keep configuration order so rationale and providers do not depend on who finished first
	answers := make([]models.ProviderRawScore, 0, len(replies))
	for _, raw := range replies {
		if raw != nil {
			answers = append(answers, *raw)
		}
	}

	if len(answers) == 0 {
		if len(errs) > 0 {
			return nil, fmt.Errorf("%w: %w", ErrGraderUnavailable, errors.Join(errs...))
		}
		return nil, ErrGraderUnavailable
	}

	if task.RationaleOnly() {
		// only the explanation is taken; the numbers stay deterministic
		merged := scoring.MergeProviderScores(answers, task.Section)
		result := task.Deterministic.Clone()
		result.Rationale = merged.Rationale
		if result.Metadata == nil {
			result.Metadata = map[string]any{}
		}
		result.Metadata["rationaleProviders"] = merged.Metadata["providers"]
		return result, nil
	}
	return scoring.MergeProviderScores(answers, task.Section), nil
}
