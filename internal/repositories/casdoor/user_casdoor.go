package casdoor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/pte-scoring-service/internal/cache"
	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// userFetcher is the slice of the Casdoor SDK client this repository uses
type userFetcher interface {
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
}

type UserCasdoor struct {
	client   userFetcher
	cache    *cache.CacheHelper
	cacheTTL time.Duration
}

func NewUserCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
	return newUserCasdoor(client, redisClient)
}

func newUserCasdoor(client userFetcher, redisClient *redis.Client) *UserCasdoor {
	return &UserCasdoor{
		client:   client,
		cache:    cache.NewCacheHelper(redisClient, "user:"),
		cacheTTL: 15 * time.Minute,
	}
}

// ===== CONVERSION =====

func convertCasdoorUser(cu *casdoorsdk.User) *models.User {
	if cu == nil {
		return nil
	}

	var createdAt, updatedAt time.Time
	if cu.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, cu.CreatedTime)
	}
	if cu.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, cu.UpdatedTime)
	}

	var avatar *string
	if cu.Avatar != "" {
		avatar = &cu.Avatar
	}

	return &models.User{
		ID:            cu.Id,
		FullName:      cu.DisplayName,
		Email:         cu.Email,
		Role:          convertCasdoorRoles(cu),
		AvatarURL:     avatar,
		EmailVerified: cu.EmailVerified,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// convertCasdoorRoles picks the most privileged role the user holds
func convertCasdoorRoles(cu *casdoorsdk.User) models.UserRole {
	if cu.IsAdmin {
		return models.RoleAdmin
	}
	roles := make([]models.UserRole, 0, len(cu.Roles))
	for _, r := range cu.Roles {
		if r != nil {
			roles = append(roles, MapRoleName(r.Name))
		}
	}
	switch {
	case slices.Contains(roles, models.RoleAdmin):
		return models.RoleAdmin
	case slices.Contains(roles, models.RoleTeacher):
		return models.RoleTeacher
	}
	return models.RoleLearner
}

// MapRoleName maps a Casdoor role or tag to a service role. Unknown names are learners.
func MapRoleName(name string) models.UserRole {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "teacher", "instructor", "tutor":
		return models.RoleTeacher
	default:
		return models.RoleLearner
	}
}

// ===== READ OPERATIONS =====

// GetByID resolves a user through the cache, falling back to Casdoor
func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := u.cache.CacheOrExecute(ctx, "id:"+id, &user, u.cacheTTL, func() (any, error) {
		cu, err := u.client.GetUserByUserId(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
		}
		if cu == nil {
			return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
		}
		return convertCasdoorUser(cu), nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserCasdoor) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	user, err := u.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.Role == role, nil
}
