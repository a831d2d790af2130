package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and only logs failures
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and only logs failures
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

func QuestionKey(id uint) string {
	return fmt.Sprintf("id:%d", id)
}

// QuestionListKey identifies one page of the catalogue for a filter set
func QuestionListKey(section, questionType, difficulty string, activeOnly bool, limit, offset int) string {
	return fmt.Sprintf("list:%s:%s:%s:%t:%d:%d", section, questionType, difficulty, activeOnly, limit, offset)
}

func AttemptListPattern(userID string) string {
	return fmt.Sprintf("user:%s:*", userID)
}

// InvalidateQuestionCache drops a cached question and any listing that may contain it
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, questionID uint) {
	SafeDelete(ctx, cm.Question, QuestionKey(questionID))
	SafeInvalidatePattern(ctx, cm.Question, "list:*")
}

// InvalidateAttemptCache drops a user's cached attempt listings and progress summary
func InvalidateAttemptCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeInvalidatePattern(ctx, cm.Attempt, AttemptListPattern(userID))
}
