package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/SAP-F-2025/pte-scoring-service/internal/cache"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
)

const (
	defaultProgressDays = 30
	maxProgressDays     = 365
)

type dashboardService struct {
	repo   repositories.Repository
	cache  *cache.CacheManager
	logger *slog.Logger
	now    func() time.Time
}

func NewDashboardService(repo repositories.Repository, cm *cache.CacheManager, logger *slog.Logger, cfg Config) DashboardService {
	if cm == nil {
		cm = cache.NewCacheManager(nil)
	}
	return &dashboardService{
		repo:   repo,
		cache:  cm,
		logger: logger,
		now:    cfg.clock(),
	}
}

// GetProgress summarises a learner's attempts per section plus daily activity for the
// last days days. The summary shares the attempt cache so a new attempt drops it.
func (s *dashboardService) GetProgress(ctx context.Context, userID string, days int) (*ProgressResponse, error) {
	if userID == "" {
		return nil, NewCodedError(CodeUnauthorized, "User not authenticated", nil)
	}
	if days <= 0 {
		days = defaultProgressDays
	}
	days = min(days, maxProgressDays)

	var out ProgressResponse
	key := fmt.Sprintf("user:%s:progress:%d", userID, days)
	err := s.cache.Attempt.CacheOrExecute(ctx, key, &out, cache.AttemptCacheConfig.TTL, func() (any, error) {
		sections, err := s.repo.Dashboard().GetSectionSummaries(ctx, nil, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get section summaries: %w", err)
		}
		activity, err := s.repo.Dashboard().GetDailyActivity(ctx, nil, userID, days)
		if err != nil {
			return nil, fmt.Errorf("failed to get daily activity: %w", err)
		}

		var total int64
		for i := range sections {
			total += sections[i].Attempts
			sections[i].AverageOverall = roundFloat(sections[i].AverageOverall, 1)
		}
		for i := range activity {
			activity[i].AverageOverall = roundFloat(activity[i].AverageOverall, 1)
		}

		return &ProgressResponse{
			UserID:   userID,
			Days:     days,
			Total:    total,
			Sections: sections,
			Activity: activity,
			Streak:   streak(activity, s.now()),
		}, nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build progress", "error", err, "user_id", userID)
		return nil, err
	}
	return &out, nil
}

// streak counts consecutive active days ending today, or yesterday when nothing has been
// submitted yet today.
func streak(activity []repositories.DailyActivity, now time.Time) int {
	active := make(map[string]bool, len(activity))
	for _, a := range activity {
		if a.Attempts > 0 {
			active[a.Day.UTC().Format(time.DateOnly)] = true
		}
	}

	day := now.UTC()
	if !active[day.Format(time.DateOnly)] {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for active[day.Format(time.DateOnly)] {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

func roundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
