package services

import (
	"encoding/json"
	"fmt"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return page, min(pageSize, maxPageSize)
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func listCacheKey(userID string, section models.Section, questionID *uint, page, pageSize int) string {
	q := "all"
	if questionID != nil {
		q = fmt.Sprint(*questionID)
	}
	return fmt.Sprintf("user:%s:list:%s:%s:%d:%d", userID, section, q, page, pageSize)
}

// decodeScores reads the persisted result back. Older rows without scores decode to the
// bare overall.
func decodeScores(attempt *models.Attempt) (*models.ScoringResult, error) {
	if len(attempt.Scores) == 0 {
		return &models.ScoringResult{Overall: attempt.Overall, Subscores: map[string]int{}}, nil
	}
	var result models.ScoringResult
	if err := json.Unmarshal(attempt.Scores, &result); err != nil {
		return nil, fmt.Errorf("failed to decode scores of attempt %d: %w", attempt.ID, err)
	}
	if result.Subscores == nil {
		result.Subscores = map[string]int{}
	}
	return &result, nil
}
