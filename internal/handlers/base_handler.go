package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/pte-scoring-service/internal/services"
	"github.com/SAP-F-2025/pte-scoring-service/internal/utils"
)

// ErrorResponse is the body of every non-2xx answer. Code is stable and machine-readable.
type ErrorResponse struct {
	Code    services.ErrorCode `json:"code"`
	Message string             `json:"message"`
	Details any                `json:"details,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	if logger == nil {
		logger = utils.NewSlogLogger(nil)
	}
	return BaseHandler{logger: logger}
}

func (h BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.FromContext(c.Request.Context(), h.logger)
}

func (h BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	h.log(c).Debug(msg, append(args, "method", c.Request.Method, "path", c.FullPath())...)
}

func (h BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	h.log(c).Error(msg, append(args, "error", err, "path", c.FullPath())...)
}

var codeStatus = map[services.ErrorCode]int{
	services.CodeValidation:           http.StatusBadRequest,
	services.CodeBadRequest:           http.StatusBadRequest,
	services.CodeUnsupportedMediaType: http.StatusUnsupportedMediaType,
	services.CodeUnauthorized:         http.StatusUnauthorized,
	services.CodeNotFound:             http.StatusNotFound,
	services.CodeTypeMismatch:         http.StatusBadRequest,
	services.CodeInactiveQuestion:     http.StatusConflict,
	services.CodeUnsupportedType:      http.StatusBadRequest,
	services.CodeTimingViolation:      http.StatusConflict,
	services.CodeRateLimited:          http.StatusTooManyRequests,
	services.CodeGraderUnavailable:    http.StatusServiceUnavailable,
	services.CodeInternal:             http.StatusInternalServerError,
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code services.ErrorCode) int {
	if s, ok := codeStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, code services.ErrorCode, message string, details any) {
	c.AbortWithStatusJSON(StatusFor(code), ErrorResponse{Code: code, Message: message, Details: details})
}

func (h BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		abortWithError(c, services.CodeValidation, "Validation failed", validationErrors)
		return
	}

	var coded *services.CodedError
	if errors.As(err, &coded) {
		if coded.Code == services.CodeRateLimited && coded.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(coded.RetryAfter.Seconds())))
		}
		if StatusFor(coded.Code) >= http.StatusInternalServerError {
			h.LogError(c, err, "Service unavailable", "code", coded.Code)
		}
		abortWithError(c, coded.Code, coded.Message, coded.Details)
		return
	}

	// attempts of other users are reported as missing
	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		abortWithError(c, services.CodeNotFound, "Attempt not found", nil)
		return
	}

	h.LogError(c, err, "Unexpected service error")
	abortWithError(c, services.CodeInternal, "Internal server error", nil)
}

// userID returns the authenticated user or writes a 401.
func (h BaseHandler) userID(c *gin.Context) (string, bool) {
	id := c.GetString("user_id")
	if id == "" {
		abortWithError(c, services.CodeUnauthorized, "User not authenticated", nil)
		return "", false
	}
	return id, true
}

func (h BaseHandler) parseIDParam(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		abortWithError(c, services.CodeBadRequest, "Invalid "+param, nil)
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the body; malformed JSON is a BAD_REQUEST.
func (h BaseHandler) bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		abortWithError(c, services.CodeBadRequest, "Invalid request payload", err.Error())
		return false
	}
	return true
}
