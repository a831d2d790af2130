package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/pte-scoring-service/internal/services"
	"github.com/SAP-F-2025/pte-scoring-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	service services.SessionService
}

func NewSessionHandler(service services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// StartSession issues a timed session token for one item
// @Summary Start a timed session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body services.StartSessionRequest true "Session request"
// @Success 201 {object} models.SessionResponse
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 404 {object} ErrorResponse "Question not found"
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.StartSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Starting session", "section", req.Section, "question_id", req.QuestionID)

	session, err := h.service.Start(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}
