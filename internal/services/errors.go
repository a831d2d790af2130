package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/pte-scoring-service/internal/validator"
)

// ErrorCode is the stable machine-readable code returned in error bodies.
type ErrorCode string

const (
	CodeValidation           ErrorCode = "VALIDATION"
	CodeBadRequest           ErrorCode = "BAD_REQUEST"
	CodeUnsupportedMediaType ErrorCode = "UNSUPPORTED_MEDIA_TYPE"
	CodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	CodeNotFound             ErrorCode = "NOT_FOUND"
	CodeTypeMismatch         ErrorCode = "TYPE_MISMATCH"
	CodeInactiveQuestion     ErrorCode = "INACTIVE_QUESTION"
	CodeUnsupportedType      ErrorCode = "UNSUPPORTED_TYPE"
	CodeTimingViolation      ErrorCode = "TIMING_VIOLATION"
	CodeRateLimited          ErrorCode = "RATE_LIMITED"
	CodeGraderUnavailable    ErrorCode = "GRADER_UNAVAILABLE"
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// Sentinel errors; CodedError unwraps to the matching one.
var (
	ErrValidationFailed  = errors.New("validation failed")
	ErrBadRequest        = errors.New("bad request")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrTypeMismatch      = errors.New("type mismatch with question")
	ErrQuestionInactive  = errors.New("question is not active")
	ErrUnsupportedType   = errors.New("question type not supported in section")
	ErrTimingViolation   = errors.New("timing violation")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrGraderUnavailable = errors.New("grader unavailable")
)

var codeSentinels = map[ErrorCode]error{
	CodeValidation:        ErrValidationFailed,
	CodeBadRequest:        ErrBadRequest,
	CodeUnauthorized:      ErrUnauthorized,
	CodeTypeMismatch:      ErrTypeMismatch,
	CodeInactiveQuestion:  ErrQuestionInactive,
	CodeUnsupportedType:   ErrUnsupportedType,
	CodeTimingViolation:   ErrTimingViolation,
	CodeRateLimited:       ErrRateLimited,
	CodeGraderUnavailable: ErrGraderUnavailable,
}

// CodedError carries an ErrorCode to the handler layer. RetryAfter is set for RATE_LIMITED.
type CodedError struct {
	Code       ErrorCode
	Message    string
	Details    any
	RetryAfter time.Duration
	cause      error
}

func NewCodedError(code ErrorCode, message string, cause error) *CodedError {
	return &CodedError{Code: code, Message: message, cause: cause}
}

func (e *CodedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes both the code's sentinel and the underlying cause to errors.Is.
func (e *CodedError) Unwrap() []error {
	var out []error
	if s, ok := codeSentinels[e.Code]; ok {
		out = append(out, s)
	}
	if e.cause != nil {
		out = append(out, e.cause)
	}
	return out
}

// WithDetails attaches a payload for the error body.
func (e *CodedError) WithDetails(details any) *CodedError {
	e.Details = details
	return e
}

// ===== VALIDATION / PERMISSION ERRORS =====

type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

// PermissionError reports a user acting on a resource they do not own
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{UserID: userID, ResourceID: resourceID, Resource: resource, Action: action, Reason: reason}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}
