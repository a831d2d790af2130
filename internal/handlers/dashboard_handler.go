package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/pte-scoring-service/internal/services"
	"github.com/SAP-F-2025/pte-scoring-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetProgress returns per-section averages, daily activity and the practice streak
// @Summary Learner progress
// @Tags dashboard
// @Produce json
// @Param days query int false "Window in days (default: 30, max: 365)"
// @Success 200 {object} services.ProgressResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /me/progress [get]
func (h *DashboardHandler) GetProgress(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 {
		days = 30
	}

	progress, err := h.service.GetProgress(c.Request.Context(), userID, days)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
