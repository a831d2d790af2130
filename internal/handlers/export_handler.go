package handlers

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/services"
	"github.com/SAP-F-2025/pte-scoring-service/internal/utils"
)

const (
	exportSheet      = "Attempts"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportTimeLayout = "2006-01-02 15:04:05"
)

var exportHeader = []any{
	"Attempt ID", "Created (UTC)", "Section", "Type", "Question ID", "Status",
	"Overall", "Accuracy %", "Time Taken (s)", "Subscores",
}

type ExportHandler struct {
	BaseHandler
	service services.AttemptService
}

func NewExportHandler(service services.AttemptService, logger utils.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ExportAttempts streams the caller's attempts as an xlsx workbook
// @Summary Export attempts
// @Tags attempts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param section query string false "Only this section"
// @Success 200 {file} file
// @Router /attempts/export [get]
func (h *ExportHandler) ExportAttempts(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var section *models.Section
	if raw := c.Query("section"); raw != "" {
		s := models.Section(raw)
		section = &s
	}

	attempts, err := h.service.Export(c.Request.Context(), userID, section)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	f, err := buildWorkbook(attempts)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("pte-attempts-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.LogError(c, err, "Failed to write workbook", "user_id", userID)
	}
}

func buildWorkbook(attempts []*models.Attempt) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, bold); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, a := range attempts {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := exportRow(a)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

func exportRow(a *models.Attempt) []any {
	var accuracy, timeTaken any
	if a.Accuracy != nil {
		accuracy = *a.Accuracy
	}
	if a.TimeTaken != nil {
		timeTaken = *a.TimeTaken
	}
	return []any{
		a.ID,
		a.CreatedAt.UTC().Format(exportTimeLayout),
		string(a.Section),
		string(a.Type),
		a.QuestionID,
		string(a.Status),
		a.Overall,
		accuracy,
		timeTaken,
		subscoreSummary(a),
	}
}

// subscoreSummary flattens the stored subscores into "name=value" pairs.
func subscoreSummary(a *models.Attempt) string {
	if len(a.Scores) == 0 {
		return ""
	}
	var result models.ScoringResult
	if err := json.Unmarshal(a.Scores, &result); err != nil {
		return ""
	}
	parts := make([]string, 0, len(result.Subscores))
	for _, name := range slices.Sorted(maps.Keys(result.Subscores)) {
		parts = append(parts, fmt.Sprintf("%s=%d", name, result.Subscores[name]))
	}
	return strings.Join(parts, ", ")
}
