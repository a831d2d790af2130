package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/pte-scoring-service/internal/cache"
	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// cachedQuestion carries the fields models.Question hides from JSON so a cache hit still
// has everything the scorers need.
type cachedQuestion struct {
	Question   models.Question `json:"question"`
	AnswerKey  datatypes.JSON  `json:"answer_key"`
	Transcript *string         `json:"transcript"`
}

func (c *cachedQuestion) restore() *models.Question {
	q := c.Question
	q.AnswerKey = c.AnswerKey
	q.Transcript = c.Transcript
	return &q
}

// Create inserts a question and drops cached listings
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.ID)
	return nil
}

// GetByID retrieves a question by ID with caching
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := getDB(q.db, tx)

	var entry cachedQuestion
	err := q.cacheManager.Question.CacheOrExecute(ctx, cache.QuestionKey(id), &entry, cache.QuestionCacheConfig.TTL, func() (any, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).First(&dbQuestion, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("question %d: %w", id, repositories.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get question: %w", err)
		}
		return &cachedQuestion{
			Question:   dbQuestion,
			AnswerKey:  dbQuestion.AnswerKey,
			Transcript: dbQuestion.Transcript,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return entry.restore(), nil
}

// questionPage is the cached form of one List call
type questionPage struct {
	Questions []*models.Question `json:"questions"`
	Total     int64              `json:"total"`
}

// List retrieves questions with filtering and pagination. Pages are cached until the next
// Create.
func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := getDB(q.db, tx)

	var page questionPage
	err := q.cacheManager.Question.CacheOrExecute(ctx, questionListKey(filters), &page, cache.QuestionCacheConfig.TTL, func() (any, error) {
		query := q.helpers.ApplyQuestionFilters(db.WithContext(ctx).Model(&models.Question{}), filters)

		var total int64
		if err := query.Count(&total).Error; err != nil {
			return nil, fmt.Errorf("failed to count questions: %w", err)
		}

		query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

		var questions []*models.Question
		if err := query.Find(&questions).Error; err != nil {
			return nil, fmt.Errorf("failed to list questions: %w", err)
		}
		return &questionPage{Questions: questions, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Questions, page.Total, nil
}

func questionListKey(f repositories.QuestionFilters) string {
	var section, qt, difficulty string
	if f.Section != nil {
		section = string(*f.Section)
	}
	if f.Type != nil {
		qt = string(*f.Type)
	}
	if f.Difficulty != nil {
		difficulty = string(*f.Difficulty)
	}
	key := cache.QuestionListKey(section, qt, difficulty, f.ActiveOnly, f.Limit, f.Offset)
	return key + ":" + f.SortBy + ":" + f.SortOrder
}
