package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/sensorlog/internal/account/domain"
	devicedomain "github.com/smallbiznis/sensorlog/internal/device/domain"
	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// errorRule maps a family of errors onto one HTTP status. Rules are
// checked in order and the first match wins.
type errorRule struct {
	status  int
	typ     string
	message string
	errs    []error
}

var errorRules = []errorRule{
	{http.StatusUnauthorized, "unauthorized", "unauthorized", []error{
		ErrUnauthorized,
		accountdomain.ErrInvalidCredentials,
		accountdomain.ErrInvalidSession,
		accountdomain.ErrSessionNotFound,
		accountdomain.ErrSessionExpired,
		accountdomain.ErrSessionRevoked,
	}},
	{http.StatusForbidden, "forbidden", "forbidden", []error{ErrForbidden}},
	{http.StatusConflict, "conflict", "conflict", []error{
		ErrConflict,
		accountdomain.ErrDuplicateUsername,
		devicedomain.ErrPollInProgress,
	}},
	{http.StatusNotFound, "not_found", "not found", []error{
		ErrNotFound,
		measurementdomain.ErrNotFound,
		accountdomain.ErrAccountNotFound,
		gorm.ErrRecordNotFound,
	}},
	{http.StatusTooManyRequests, "rate_limited", "too many requests", []error{ErrRateLimited}},
	{http.StatusBadGateway, "device_unreachable", "device unreachable", []error{devicedomain.ErrConnectivity}},
	{http.StatusServiceUnavailable, "service_unavailable", "service unavailable", []error{ErrServiceUnavailable}},
}

func (r errorRule) matches(err error) bool {
	for _, target := range r.errs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}
	if err != nil && isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{{
				Field:   validationErrorField(code),
				Code:    code,
				Message: validationErrorMessage(code),
			}},
		}
	}

	if err != nil {
		for _, rule := range errorRules {
			if rule.matches(err) {
				return rule.status, errorPayload{Type: rule.typ, Message: rule.message}
			}
		}
	}
	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, measurementdomain.ErrValidation),
		errors.Is(err, measurementdomain.ErrInvalidID),
		errors.Is(err, accountdomain.ErrValidation):
		return true
	default:
		return false
	}
}

// validationErrorCode picks the most specific sentinel code, e.g.
// "invalid_sensor_name" out of "validation_error: invalid_sensor_name".
func validationErrorCode(err error) string {
	for _, sentinel := range []error{
		measurementdomain.ErrInvalidSensorName,
		measurementdomain.ErrInvalidValue,
		measurementdomain.ErrInvalidUnit,
		measurementdomain.ErrInvalidLocation,
		measurementdomain.ErrInvalidFilter,
		measurementdomain.ErrInvalidFormat,
		measurementdomain.ErrInvalidID,
		accountdomain.ErrInvalidUsername,
		accountdomain.ErrInvalidPassword,
	} {
		if errors.Is(err, sentinel) {
			return lastSegment(sentinel.Error())
		}
	}
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return "validation_error"
}

func lastSegment(msg string) string {
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "validation_error":
		return "validation error"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog returns the error type and code logged per request.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if asValidationErrors(err) != nil || isValidationError(err) {
		return "validation_error", validationErrorCode(err)
	}
	_, payload := mapError(err)
	return payload.Type, payload.Type
}
