package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("not found")
	ErrNetwork              = errors.New("network error")
	ErrServer               = errors.New("server error")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrBusy                 = errors.New("another change is still in progress")
	ErrConfirmationDeclined = errors.New("confirmation declined")
	ErrReadOnlyField        = errors.New("field is read-only")
	ErrUnknownField         = errors.New("unknown field")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrNotSupported         = errors.New("operation not supported for this resource")
	ErrNotPublic            = errors.New("content is not publicly available")
)

// ValidationError is a local, pre-network failure. Fields lists the offending
// field names in schema order.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing required fields"
	}
	if len(e.Fields) == 0 {
		return reason
	}
	return fmt.Sprintf("%s: %s", reason, strings.Join(e.Fields, ", "))
}

// Is lets errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError for the given fields.
func NewValidationError(reason string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Reason: reason}
}

// APIError is a non-2xx response from the backend. Message carries the
// server-provided "message" verbatim and may be empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend responded %d", e.Status)
}

// Unwrap maps the status code onto the sentinel taxonomy.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized, e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrServer
	}
}

// UserMessage returns the text shown to a person for err: the backend message
// when there is one, the validation summary for local failures, otherwise
// fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Error()
	}
	switch {
	case errors.Is(err, ErrBusy), errors.Is(err, ErrConfirmationDeclined), errors.Is(err, ErrNotAuthenticated):
		return err.Error()
	}
	return fallback
}
