package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mtlprog/opschief/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	// Store failures first: the wrapped cause may itself be a mapped sentinel
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusBadGateway, "PERSISTENCE_ERROR", message

	// Lookup errors
	case errors.Is(err, domain.ErrEventNotFound):
		return http.StatusNotFound, "EVENT_NOT_FOUND", message
	case errors.Is(err, domain.ErrAlertNotFound):
		return http.StatusNotFound, "ALERT_NOT_FOUND", message
	case errors.Is(err, domain.ErrStaffNotFound):
		return http.StatusNotFound, "STAFF_NOT_FOUND", message

	// Session errors
	case errors.Is(err, domain.ErrNoOpenSession):
		return http.StatusConflict, "NO_OPEN_SESSION", message
	case errors.Is(err, domain.ErrSubmitInProgress):
		return http.StatusConflict, "SUBMIT_IN_PROGRESS", message
	case errors.Is(err, domain.ErrStaleReference):
		return http.StatusConflict, "STALE_REFERENCE", message

	// Validation errors
	case errors.Is(err, domain.ErrAssigneeRequired):
		return http.StatusUnprocessableEntity, "ASSIGNEE_REQUIRED", message
	case errors.Is(err, domain.ErrUnknownAssignee):
		return http.StatusUnprocessableEntity, "UNKNOWN_ASSIGNEE", message
	case errors.Is(err, domain.ErrActionNotAllowed):
		return http.StatusUnprocessableEntity, "ACTION_NOT_ALLOWED", message
	case errors.Is(err, domain.ErrNoResolutionAction):
		return http.StatusUnprocessableEntity, "NO_RESOLUTION_ACTION", message
	case errors.Is(err, domain.ErrInvalidAction):
		return http.StatusUnprocessableEntity, "INVALID_ACTION", message
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownField):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	// Operator errors
	case errors.Is(err, domain.ErrOperatorNotFound):
		return http.StatusUnauthorized, "INVALID_TOKEN", message
	case errors.Is(err, domain.ErrOperatorInactive):
		return http.StatusUnauthorized, "OPERATOR_INACTIVE", message

	// Default: internal server error
	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
