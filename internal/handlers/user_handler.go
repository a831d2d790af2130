package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/pte-scoring-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userRepo repositories.UserRepository
}

func NewUserHandler(userRepo repositories.UserRepository, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userRepo:    userRepo,
	}
}

// GetMe returns the authenticated user
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if h.userRepo != nil {
		user, err := h.userRepo.GetByID(c.Request.Context(), userID)
		if err == nil {
			c.JSON(http.StatusOK, user)
			return
		}
		h.LogError(c, err, "Falling back to token claims", "user_id", userID)
	}

	user, err := GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"id": userID})
		return
	}
	c.JSON(http.StatusOK, user)
}
