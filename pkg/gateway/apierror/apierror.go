// Package apierror maps internal errors onto the canonical wire error
// envelope and HTTP status codes.
package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/maurice-chat/maurice/pkg/core/mail"
	"github.com/maurice-chat/maurice/pkg/core/session"
)

// ErrorType categorizes errors per the service taxonomy.
type ErrorType string

const (
	// ErrConfiguration: a required credential or setting is missing. The
	// operation aborts; these surface at startup, not per-request.
	ErrConfiguration ErrorType = "configuration_error"
	// ErrUpstream: an external STT/LLM/TTS/email call failed and was not
	// absorbed locally.
	ErrUpstream ErrorType = "upstream_error"
	// ErrValidation: malformed request body.
	ErrValidation ErrorType = "validation_error"
	// ErrConflict: the session already has an exchange in flight.
	ErrConflict ErrorType = "concurrency_conflict"
	// ErrNotFound: the addressed resource does not exist.
	ErrNotFound ErrorType = "not_found"
	// ErrInternal: anything else; details are not leaked.
	ErrInternal ErrorType = "internal_error"
)

// Error is the canonical API error.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Param     string    `json:"param,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Envelope is the JSON error wrapper written to clients.
type Envelope struct {
	Error *Error `json:"error"`
}

// Validation builds a field-level validation error.
func Validation(message, param string) *Error {
	return &Error{Type: ErrValidation, Message: message, Param: param}
}

// FromError maps an internal error to the canonical error and HTTP status.
func FromError(err error, requestID string) (*Error, int) {
	if err == nil {
		return nil, http.StatusOK
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Type: ErrUpstream, Message: "request timeout", RequestID: requestID}, http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Type: ErrInternal, Message: "request cancelled", RequestID: requestID}, http.StatusRequestTimeout
	}

	if errors.Is(err, session.ErrBusy) {
		return &Error{Type: ErrConflict, Message: "session is already processing a message", RequestID: requestID}, http.StatusTooManyRequests
	}
	if errors.Is(err, session.ErrNotFound) {
		return &Error{Type: ErrNotFound, Message: "session not found", RequestID: requestID}, http.StatusNotFound
	}

	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr != nil {
		out := *apiErr
		out.RequestID = requestID
		return &out, StatusFromType(out.Type)
	}

	var fieldErr *mail.FieldError
	if errors.As(err, &fieldErr) && fieldErr != nil {
		return &Error{Type: ErrValidation, Message: fieldErr.Message, Param: fieldErr.Field, RequestID: requestID}, http.StatusBadRequest
	}

	// Unknown errors: treat as internal (do not leak details by default).
	return &Error{Type: ErrInternal, Message: "internal error", RequestID: requestID}, http.StatusInternalServerError
}

// StatusFromType maps the taxonomy onto HTTP status codes.
func StatusFromType(t ErrorType) int {
	switch t {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusTooManyRequests
	case ErrUpstream:
		return http.StatusBadGateway
	case ErrConfiguration, ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
