package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/pte-scoring-service/internal/cache"
	"github.com/SAP-F-2025/pte-scoring-service/internal/metrics"
	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

func TestRateLimiter_RedisWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newTestClock()
	cfg := DefaultConfig()
	cfg.Clock = clock.Now
	cfg.RateLimits = map[models.Section]int{models.SectionWriting: 2}
	limiter := NewRateLimiter(newMemRepo(clock.Now), cache.NewCacheManager(client).Rate, discardLogger(), metrics.New(), cfg)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		d, err := limiter.Check(ctx, "u1", models.SectionWriting)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
	}

	mr.FastForward(20 * time.Minute)
	d, err := limiter.Check(ctx, "u1", models.SectionWriting)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)
	assert.Equal(t, int64(3), d.Count)
	assert.Equal(t, 40*time.Minute, d.RetryAfter)

	// other users and sections count separately
	d, err = limiter.Check(ctx, "u2", models.SectionWriting)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	d, err = limiter.Check(ctx, "u1", models.SectionReading)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 120, d.Limit)

	mr.FastForward(41 * time.Minute)
	d, err = limiter.Check(ctx, "u1", models.SectionWriting)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRateLimiter_FallsBackToAttempts(t *testing.T) {
	clock := newTestClock()
	repo := newMemRepo(clock.Now)
	for i := range 3 {
		repo.attempts = append(repo.attempts, &models.Attempt{
			ID: uint(i + 1), UserID: "u1", Section: models.SectionSpeaking,
			CreatedAt: clock.Now().Add(-time.Duration(i*20) * time.Minute),
		})
	}

	cfg := DefaultConfig()
	cfg.Clock = clock.Now
	cfg.RateLimits = map[models.Section]int{models.SectionSpeaking: 3}
	limiter := NewRateLimiter(repo, cache.NewCacheManager(nil).Rate, discardLogger(), nil, cfg)

	d, err := limiter.Check(context.Background(), "u1", models.SectionSpeaking)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(3), d.Count)

	// the oldest attempt leaves the window
	clock.Advance(21 * time.Minute)
	d, err = limiter.Check(context.Background(), "u1", models.SectionSpeaking)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRateLimitedError(t *testing.T) {
	err := rateLimitedError(models.SectionWriting, &RateDecision{Limit: 30, RetryAfter: 300 * time.Millisecond})

	assert.ErrorIs(t, err, ErrRateLimited)
	var coded *CodedError
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, time.Second, coded.RetryAfter)
	assert.Equal(t, map[string]any{"limit": 30, "retryAfterSeconds": 1}, coded.Details)
	assert.Contains(t, coded.Message, "max 30 writing attempts per hour")
}
