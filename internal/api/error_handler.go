package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

// errorResponse is the canonical error envelope for all gateway errors.
type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to HTTP status codes.
//   - Logs unexpected errors without leaking details to the client.
//   - Renders {"error": "<message>"}, plus "fields" for validation failures.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, errorResponse{Error: ve.Error(), Fields: ve.Fields}
	}

	// Client errors from the backend keep their code and message.
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 &&
		!errors.Is(err, domain.ErrUnauthorized) && !errors.Is(err, domain.ErrNotFound) {
		return apiErr.Status, errorResponse{Error: domain.UserMessage(err, "request rejected by the content backend")}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: domain.UserMessage(err, "invalid credentials")}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Error: domain.UserMessage(err, "session expired, please sign in again")}
	case errors.Is(err, domain.ErrNotPublic):
		return http.StatusNotFound, errorResponse{Error: "not found"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: domain.UserMessage(err, "not found")}
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrConfirmationDeclined):
		return http.StatusPreconditionRequired, errorResponse{Error: "confirmation required: repeat with confirm=true"}
	case errors.Is(err, domain.ErrNotSupported):
		return http.StatusMethodNotAllowed, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrReadOnlyField), errors.Is(err, domain.ErrUnknownField):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway, errorResponse{Error: "content backend unreachable"}
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway, errorResponse{Error: "content backend sent an unexpected response"}
	case errors.Is(err, domain.ErrServer):
		return http.StatusBadGateway, errorResponse{Error: domain.UserMessage(err, "content backend failed")}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
