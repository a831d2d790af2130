package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

// GetSectionSummaries returns one row per section the user has attempted, in exam order
func (r *dashboardRepository) GetSectionSummaries(ctx context.Context, tx *gorm.DB, userID string) ([]repositories.SectionSummary, error) {
	db := getDB(r.db, tx)

	var rows []repositories.SectionSummary
	if err := db.WithContext(ctx).
		Model(&models.Attempt{}).
		Select(`section,
			COUNT(*) AS attempts,
			COALESCE(AVG(overall), 0) AS average_overall,
			COALESCE(MAX(overall), 0) AS best_overall,
			MAX(created_at) AS last_attempt_at`).
		Where("user_id = ?", userID).
		Group("section").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get section summaries: %w", err)
	}

	bySection := make(map[models.Section]repositories.SectionSummary, len(rows))
	for _, row := range rows {
		bySection[row.Section] = row
	}
	ordered := make([]repositories.SectionSummary, 0, len(rows))
	for _, s := range models.Sections {
		if row, ok := bySection[s]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}

// GetDailyActivity buckets the last `days` days of attempts by calendar day (UTC)
func (r *dashboardRepository) GetDailyActivity(ctx context.Context, tx *gorm.DB, userID string, days int) ([]repositories.DailyActivity, error) {
	db := getDB(r.db, tx)
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	var rows []repositories.DailyActivity
	if err := db.WithContext(ctx).
		Model(&models.Attempt{}).
		Select(`DATE_TRUNC('day', created_at AT TIME ZONE 'UTC') AS day,
			COUNT(*) AS attempts,
			COALESCE(AVG(overall), 0) AS average_overall`).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get daily activity: %w", err)
	}
	return rows, nil
}
