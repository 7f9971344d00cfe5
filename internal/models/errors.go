package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError. Each code has a fixed HTTP status, see StatusFor.
const (
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeSelfVote          = "SELF_VOTE"
	CodeDuplicateVote     = "DUPLICATE_VOTE"
	CodeNotAuthorized     = "NOT_AUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeValidation        = "VALIDATION_ERROR"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeInconsistentState = "INCONSISTENT_STATE"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
)

// Messages shown to vote clients verbatim.
const (
	MsgVoteLoginRequired    = "You must be logged in to vote."
	MsgSelfVote             = "You may not vote on your own posts."
	MsgDuplicateVote        = "You have already voted."
	MsgVoteRemoveNotAllowed = "You are not authorized to remove this vote."
	MsgInvalidVoteType      = "Invalid vote type."
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewValidationFailedError reports that persistence rejected the input.
func NewValidationFailedError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeValidationFailed,
		Message: message,
		Err:     err,
	}
}

// NewInconsistentStateError reports a change that was applied in memory but not saved.
func NewInconsistentStateError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInconsistentState,
		Message: message,
		Err:     err,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewUnauthenticatedError() *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: MsgVoteLoginRequired,
	}
}

func NewSelfVoteError() *AppError {
	return &AppError{
		Code:    CodeSelfVote,
		Message: MsgSelfVote,
	}
}

func NewDuplicateVoteError() *AppError {
	return &AppError{
		Code:    CodeDuplicateVote,
		Message: MsgDuplicateVote,
	}
}

// NewNotAuthorizedError is returned when an actor touches a record it does not own.
func NewNotAuthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeNotAuthorized,
		Message: message,
	}
}

// NewForbiddenError is the comment authorization failure.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// IsCode reports whether err is an AppError carrying code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// StatusFor maps an error to its HTTP status.
// FORBIDDEN maps to 401 rather than 403; comment clients depend on it.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeUnauthenticated, CodeSelfVote, CodeNotAuthorized:
		return fiber.StatusForbidden
	case CodeDuplicateVote:
		return fiber.StatusConflict
	case CodeForbidden, CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeValidationFailed:
		return fiber.StatusUnprocessableEntity
	case CodeNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
