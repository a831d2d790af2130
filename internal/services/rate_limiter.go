package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/pte-scoring-service/internal/cache"
	"github.com/SAP-F-2025/pte-scoring-service/internal/metrics"
	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
)

// DefaultRateLimits are submissions per user per hour.
var DefaultRateLimits = map[models.Section]int{
	models.SectionReading:   120,
	models.SectionListening: 120,
	models.SectionWriting:   30,
	models.SectionSpeaking:  60,
}

type rateLimiter struct {
	repo    repositories.Repository
	counter *cache.CacheHelper
	limits  map[models.Section]int
	window  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRateLimiter counts with a Redis fixed window when the helper is backed by a client
// and falls back to counting persisted attempts otherwise.
func NewRateLimiter(repo repositories.Repository, counter *cache.CacheHelper, logger *slog.Logger, m *metrics.Metrics, cfg Config) RateLimiter {
	limits := make(map[models.Section]int, len(DefaultRateLimits))
	for s, n := range DefaultRateLimits {
		limits[s] = n
	}
	for s, n := range cfg.RateLimits {
		limits[s] = n
	}
	window := cfg.RateWindow
	if window <= 0 {
		window = time.Hour
	}
	return &rateLimiter{
		repo:    repo,
		counter: counter,
		limits:  limits,
		window:  window,
		logger:  logger,
		metrics: m,
		now:     cfg.clock(),
	}
}

func rateKey(userID string, section models.Section) string {
	return fmt.Sprintf("%s:%s", userID, section)
}

func (r *rateLimiter) Check(ctx context.Context, userID string, section models.Section) (*RateDecision, error) {
	limit, ok := r.limits[section]
	if !ok || limit <= 0 {
		return &RateDecision{Allowed: true}, nil
	}

	decision, err := r.checkCounter(ctx, userID, section, limit)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheNotAvailable) {
			r.logger.WarnContext(ctx, "Rate counter unavailable, counting attempts instead", "error", err)
		}
		if decision, err = r.checkAttempts(ctx, userID, section, limit); err != nil {
			return nil, err
		}
	}

	if !decision.Allowed {
		r.metrics.RateLimited(string(section))
		r.logger.InfoContext(ctx, "Rate limit exceeded",
			"user_id", userID,
			"section", section,
			"limit", limit,
			"count", decision.Count)
	}
	return decision, nil
}

func (r *rateLimiter) checkCounter(ctx context.Context, userID string, section models.Section, limit int) (*RateDecision, error) {
	count, left, err := r.counter.IncrWindow(ctx, rateKey(userID, section), r.window)
	if err != nil {
		return nil, err
	}
	return &RateDecision{
		Allowed:    count <= int64(limit),
		Limit:      limit,
		Count:      count,
		RetryAfter: left,
	}, nil
}

func (r *rateLimiter) checkAttempts(ctx context.Context, userID string, section models.Section, limit int) (*RateDecision, error) {
	count, err := r.repo.Attempt().CountSince(ctx, nil, userID, section, r.now().Add(-r.window))
	if err != nil {
		return nil, fmt.Errorf("failed to count recent attempts: %w", err)
	}
	return &RateDecision{
		Allowed:    count < int64(limit),
		Limit:      limit,
		Count:      count,
		RetryAfter: r.window,
	}, nil
}

// rateLimitedError builds the 429 body: retry guidance, never an internal retry.
func rateLimitedError(section models.Section, d *RateDecision) error {
	retry := d.RetryAfter.Round(time.Second)
	if retry < time.Second {
		retry = time.Second
	}
	err := NewCodedError(CodeRateLimited,
		fmt.Sprintf("Rate limit exceeded: max %d %s attempts per hour", d.Limit, section), nil)
	err.RetryAfter = retry
	return err.WithDetails(map[string]any{
		"limit":             d.Limit,
		"retryAfterSeconds": int(retry.Seconds()),
	})
}
