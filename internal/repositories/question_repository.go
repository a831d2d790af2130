package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

type QuestionFilters struct {
	Section    *models.Section         `json:"section"`
	Type       *models.QuestionType    `json:"type"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	ActiveOnly bool                    `json:"active_only"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`
	SortOrder  string                  `json:"sort_order"`
}

// QuestionRepository reads the question catalogue. Questions are authored elsewhere; Create
// exists for seeding and tests.
type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error

	// GetByID includes the answer key and transcript. Results are cached.
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
}
