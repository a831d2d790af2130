package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/services"
	"github.com/SAP-F-2025/pte-scoring-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	service services.AttemptService
}

func NewAttemptHandler(service services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== ATTEMPT ENDPOINTS =====

// ScoreAttempt scores one submission and stores it
// @Summary Score an attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param section path string true "speaking | writing | reading | listening"
// @Param request body services.ScoreAttemptRequest true "Submission"
// @Success 201 {object} models.AttemptResponse
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 409 {object} ErrorResponse "Timing violation or inactive question"
// @Failure 429 {object} ErrorResponse "Rate limited"
// @Failure 503 {object} ErrorResponse "Grader unavailable"
// @Router /{section}/attempts [post]
func (h *AttemptHandler) ScoreAttempt(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	section, ok := h.sectionParam(c)
	if !ok {
		return
	}

	var req services.ScoreAttemptRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Scoring attempt", "section", section, "question_id", req.QuestionID, "type", req.Type)

	resp, err := h.service.Score(c.Request.Context(), section, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetAttempt returns one of the caller's attempts
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} models.AttemptResponse
// @Failure 404 {object} ErrorResponse "Attempt not found"
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListAttempts pages through the caller's attempts in one section, newest first
// @Summary List attempts
// @Tags attempts
// @Produce json
// @Param section path string true "Section"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 25, max: 100)"
// @Param questionId query int false "Only attempts on this question"
// @Success 200 {object} models.AttemptListResponse
// @Router /{section}/attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	section, ok := h.sectionParam(c)
	if !ok {
		return
	}

	var query services.ListAttemptsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		abortWithError(c, services.CodeBadRequest, "Invalid query parameters", err.Error())
		return
	}

	resp, err := h.service.List(c.Request.Context(), section, &query, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AttemptHandler) sectionParam(c *gin.Context) (models.Section, bool) {
	section := models.Section(c.Param("section"))
	if !section.IsValid() {
		abortWithError(c, services.CodeBadRequest, "Unknown section", gin.H{"section": section})
		return "", false
	}
	return section, true
}
