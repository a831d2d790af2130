package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/services"
	"github.com/SAP-F-2025/pte-scoring-service/internal/utils"
)

type QuestionHandler struct {
	BaseHandler
	service services.QuestionService
}

func NewQuestionHandler(service services.QuestionService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateQuestion adds an item to the catalogue
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param request body services.CreateQuestionRequest true "Question"
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 404 {object} ErrorResponse "Caller is not a teacher"
// @Router /questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req services.CreateQuestionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating question", "section", req.Section, "question_type", req.Type)

	question, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// ListQuestions pages through the catalogue. Only teachers and admins may include
// inactive questions.
// @Summary List questions
// @Tags questions
// @Produce json
// @Param section query string false "Section"
// @Param type query string false "Question type"
// @Param difficulty query string false "easy, medium or hard"
// @Param page query int false "Page (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.QuestionListResponse
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	var query services.ListQuestionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		abortWithError(c, services.CodeBadRequest, "Invalid query parameters", err.Error())
		return
	}
	if role, err := GetUserRoleFromContext(c); err != nil || (role != models.RoleTeacher && role != models.RoleAdmin) {
		query.IncludeInactive = false
	}

	resp, err := h.service.List(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
