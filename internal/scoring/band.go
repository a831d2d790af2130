package scoring

import "github.com/SAP-F-2025/pte-scoring-service/internal/models"

// ToBand floors a score to its 10-point band.
func ToBand(score int) int {
	return ClampTo90(float64(score)) / 10 * 10
}

// ScoreDescriptor names the PTE Academic band a score falls in.
func ScoreDescriptor(score int) string {
	s := ClampTo90(float64(score))
	switch {
	case s >= 85:
		return "Expert"
	case s >= 76:
		return "Very Good"
	case s >= 65:
		return "Good"
	case s >= 50:
		return "Competent"
	case s >= 36:
		return "Modest"
	case s >= 10:
		return "Limited"
	default:
		return "Extremely Limited"
	}
}

// BuildFeedback attaches band and descriptor to the overall score and each subscore.
func BuildFeedback(result *models.ScoringResult) *models.Feedback {
	if result == nil {
		return nil
	}
	fb := &models.Feedback{
		Band:       ToBand(result.Overall),
		Descriptor: ScoreDescriptor(result.Overall),
		Subscores:  make(map[string]models.SubscoreFeedback, len(result.Subscores)),
	}
	for k, v := range result.Subscores {
		fb.Subscores[k] = models.SubscoreFeedback{
			Score:      v,
			Band:       ToBand(v),
			Descriptor: ScoreDescriptor(v),
		}
	}
	return fb
}
