package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/services"
	"github.com/SAP-F-2025/pte-scoring-service/internal/timing"
	"github.com/SAP-F-2025/pte-scoring-service/internal/utils"
)

type TimingHandler struct {
	BaseHandler
}

func NewTimingHandler(logger utils.Logger) *TimingHandler {
	return &TimingHandler{BaseHandler: NewBaseHandler(logger)}
}

type timingResponse struct {
	timing.ItemTiming
	WindowMs int64  `json:"windowMs"`
	Label    string `json:"label"`
	Display  string `json:"display"`
}

// GetTiming returns the catalogue timing for a task
// @Summary Task timing
// @Tags timing
// @Produce json
// @Param section path string true "Section"
// @Param type path string true "Question type"
// @Success 200 {object} timingResponse
// @Router /timing/{section}/{type} [get]
func (h *TimingHandler) GetTiming(c *gin.Context) {
	section := models.Section(c.Param("section"))
	if !section.IsValid() {
		abortWithError(c, services.CodeBadRequest, "Unknown section", gin.H{"section": section})
		return
	}
	qt := models.QuestionType(c.Param("type"))
	if !models.IsKnownQuestionType(qt) || !section.Supports(qt) {
		abortWithError(c, services.CodeUnsupportedType, "Unsupported question type for section", gin.H{"section": section, "type": qt})
		return
	}

	it := timing.For(section, qt)
	c.JSON(http.StatusOK, timingResponse{
		ItemTiming: it,
		WindowMs:   it.WindowMs(),
		Label:      timing.FormatLabel(section, qt),
		Display:    timing.Format(it.WindowMs()),
	})
}
