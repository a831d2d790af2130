package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheManager(client), mr
}

type payload struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestCacheHelper_SetGetDelete(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Question.Set(ctx, "id:1", payload{Name: "ra", Score: 90}, time.Minute))
	assert.True(t, mr.Exists("question:id:1"))

	var got payload
	require.NoError(t, cm.Question.Get(ctx, "id:1", &got))
	assert.Equal(t, payload{Name: "ra", Score: 90}, got)

	require.NoError(t, cm.Question.Delete(ctx, "id:1"))
	assert.ErrorIs(t, cm.Question.Get(ctx, "id:1", &got), ErrCacheNotFound)
}

func TestCacheHelper_NilClientDegrades(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	assert.False(t, cm.Question.Available())
	assert.NoError(t, cm.Question.Set(ctx, "k", 1, time.Minute))
	assert.NoError(t, cm.Question.Delete(ctx, "k"))
	assert.NoError(t, cm.Question.InvalidatePattern(ctx, "*"))

	var v int
	assert.ErrorIs(t, cm.Question.Get(ctx, "k", &v), ErrCacheNotAvailable)
	_, _, err := cm.Rate.IncrWindow(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrCacheNotAvailable)
	assert.ErrorIs(t, cm.HealthCheck(ctx), ErrCacheNotAvailable)

	calls := 0
	require.NoError(t, cm.Question.CacheOrExecute(ctx, "k", &v, time.Minute, func() (any, error) {
		calls++
		return 7, nil
	}))
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	cm, _ := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (any, error) {
		calls++
		return payload{Name: "wfd", Score: 60}, nil
	}

	var first payload
	require.NoError(t, cm.Question.CacheOrExecute(ctx, "id:9", &first, time.Minute, fetch))
	assert.Equal(t, "wfd", first.Name)

	// the write-back is asynchronous
	require.Eventually(t, func() bool {
		var cached payload
		return cm.Question.Get(ctx, "id:9", &cached) == nil
	}, time.Second, 10*time.Millisecond)

	var second payload
	require.NoError(t, cm.Question.CacheOrExecute(ctx, "id:9", &second, time.Minute, fetch))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestCacheHelper_CacheOrExecuteFetchError(t *testing.T) {
	cm, _ := newTestManager(t)
	boom := errors.New("db down")

	var dest payload
	err := cm.Question.CacheOrExecute(context.Background(), "id:2", &dest, time.Minute, func() (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	for _, k := range []string{"user:u1:p1", "user:u1:p2", "user:u2:p1"} {
		require.NoError(t, cm.Attempt.Set(ctx, k, 1, time.Minute))
	}

	InvalidateAttemptCache(ctx, cm, "u1")
	assert.False(t, mr.Exists("attempts:user:u1:p1"))
	assert.False(t, mr.Exists("attempts:user:u1:p2"))
	assert.True(t, mr.Exists("attempts:user:u2:p1"))
}

func TestCacheHelper_IncrWindow(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	count, left, err := cm.Rate.IncrWindow(ctx, "u1:writing", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Hour, left)

	mr.FastForward(10 * time.Minute)
	count, left, err = cm.Rate.IncrWindow(ctx, "u1:writing", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 50*time.Minute, left)

	mr.FastForward(51 * time.Minute)
	count, _, err = cm.Rate.IncrWindow(ctx, "u1:writing", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
