package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s *SessionPostgreSQL) Create(ctx context.Context, session *models.AttemptSession) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create attempt session: %w", err)
	}
	return nil
}

// Consume relies on the conditional update: only the statement that flips consumed_at from
// NULL affects a row, so concurrent submits cannot both win.
func (s *SessionPostgreSQL) Consume(ctx context.Context, token, userID string) (*models.AttemptSession, error) {
	var session models.AttemptSession
	result := s.db.WithContext(ctx).
		Model(&session).
		Clauses(clause.Returning{}).
		Where("token = ? AND user_id = ? AND consumed_at IS NULL", token, userID).
		Update("consumed_at", time.Now().UTC())
	if result.Error != nil {
		return nil, fmt.Errorf("failed to consume attempt session: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return &session, nil
	}

	var existing models.AttemptSession
	err := s.db.WithContext(ctx).
		Where("token = ? AND user_id = ?", token, userID).
		First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, repositories.ErrSessionNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to load attempt session: %w", err)
	}
	return nil, repositories.ErrSessionConsumed
}
