package validator

import (
	"fmt"
	"unicode/utf8"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

// Character limits on free-text answers
const (
	MaxTextAnswerChars      = 2000
	MaxDictationAnswerChars = 500
)

// ValidateUserResponse applies the struct rules of the decoded variant and the per-type
// business limits that tags cannot express.
func (v *Validator) ValidateUserResponse(t models.QuestionType, resp models.UserResponse) ValidationErrors {
	if resp == nil {
		return ValidationErrors{{Field: "userResponse", Message: "is required", Rule: "required"}}
	}

	errs := v.Validate(resp)
	for i := range errs {
		errs[i].Field = "userResponse." + errs[i].Field
	}

	switch r := resp.(type) {
	case models.TextResponse:
		limit := MaxTextAnswerChars
		if t == models.WriteFromDictation {
			limit = MaxDictationAnswerChars
		}
		if n := utf8.RuneCountInString(r.TextAnswer); n > limit {
			errs = append(errs, ValidationError{
				Field:   "userResponse.textAnswer",
				Message: fmt.Sprintf("must be at most %d characters", limit),
				Value:   n,
				Rule:    "max",
			})
		}
	case models.BlanksResponse:
		if len(r.Answers) == 0 {
			errs = append(errs, ValidationError{
				Field:   "userResponse.answers",
				Message: "must contain at least one blank",
				Rule:    "min",
			})
		}
	case models.IndicesResponse:
		seen := make(map[int]struct{}, len(r.Indices))
		for _, idx := range r.Indices {
			if _, dup := seen[idx]; dup {
				errs = append(errs, ValidationError{
					Field:   "userResponse.indices",
					Message: "must not repeat an index",
					Value:   idx,
					Rule:    "unique",
				})
				break
			}
			seen[idx] = struct{}{}
		}
	}
	return errs
}
