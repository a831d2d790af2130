package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionConsumed = errors.New("session already consumed")
)

// ===== SHARED FILTER STRUCTS =====

type AttemptFilters struct {
	UserID     string          `json:"user_id"`
	Section    *models.Section `json:"section"`
	QuestionID *uint           `json:"question_id"`
	DateFrom   *time.Time      `json:"date_from"`
	DateTo     *time.Time      `json:"date_to"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
	SortBy     string          `json:"sort_by"`    // "created_at", "overall"
	SortOrder  string          `json:"sort_order"` // "asc", "desc"
}

// ===== ATTEMPTS =====

// AttemptRepository persists scored submissions
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.Attempt, int64, error)

	// CountSince counts a user's attempts in one section created at or after since.
	// It backs the hourly submission limits.
	CountSince(ctx context.Context, tx *gorm.DB, userID string, section models.Section, since time.Time) (int64, error)
}

// ===== TIMED SESSIONS =====

// SessionRepository stores the server-granted timing windows. Consume must be atomic: of
// any number of concurrent calls for one token, exactly one succeeds.
type SessionRepository interface {
	Create(ctx context.Context, session *models.AttemptSession) error

	// Consume marks the session used and returns it. Unknown tokens and tokens owned by
	// another user yield ErrSessionNotFound; a second consume yields ErrSessionConsumed.
	Consume(ctx context.Context, token, userID string) (*models.AttemptSession, error)
}
