package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

// DashboardRepository aggregates a learner's attempts for the progress view
type DashboardRepository interface {
	GetSectionSummaries(ctx context.Context, tx *gorm.DB, userID string) ([]SectionSummary, error)
	GetDailyActivity(ctx context.Context, tx *gorm.DB, userID string, days int) ([]DailyActivity, error)
}

type SectionSummary struct {
	Section        models.Section `json:"section"`
	Attempts       int64          `json:"attempts"`
	AverageOverall float64        `json:"averageOverall"`
	BestOverall    int            `json:"bestOverall"`
	LastAttemptAt  *time.Time     `json:"lastAttemptAt,omitempty"`
}

type DailyActivity struct {
	Day            time.Time `json:"day"`
	Attempts       int64     `json:"attempts"`
	AverageOverall float64   `json:"averageOverall"`
}
