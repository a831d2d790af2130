package repositories

import (
	"context"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

// UserRepository resolves users from the identity provider. This service never owns user data.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}
