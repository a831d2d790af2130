package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

// Longest window a client may request for one timed item (one hour).
const MaxWindowMs = 3_600_000

// Validator wraps go-playground/validator with the PTE rules registered.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	// report JSON field names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerRules()
	return v
}

// Validate checks struct tags. It returns nil when s is valid.
func (v *Validator) Validate(s any) ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return ToValidationErrors(err)
}

func (v *Validator) registerRules() {
	v.validate.RegisterValidation("pte_section", func(fl validator.FieldLevel) bool {
		return models.Section(fl.Field().String()).IsValid()
	})

	v.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		return models.IsKnownQuestionType(models.QuestionType(fl.Field().String()))
	})

	// Prep/answer overrides: zero is allowed (no preparation), negatives and anything above
	// an hour are not.
	v.validate.RegisterValidation("window_ms", func(fl validator.FieldLevel) bool {
		ms := fl.Field().Int()
		return ms >= 0 && ms <= MaxWindowMs
	})
}

// ToValidationErrors converts a validator error into ValidationErrors.
func ToValidationErrors(err error) ValidationErrors {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		switch fe.Kind() {
		case reflect.Slice, reflect.Map:
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "pte_section":
		return "must be one of speaking, writing, reading, listening"
	case "question_type":
		return "is not a known question type"
	case "window_ms":
		return fmt.Sprintf("must be between 0 and %d ms", MaxWindowMs)
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
