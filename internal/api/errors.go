package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"askdoc/internal/extract"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const internalErrorMessage = "An unexpected error occurred."

// APIError is rendered as {"error": Message} with the given status.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewValidationError(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message}
}

func NewUnsupportedFormatError(ext string) *APIError {
	return NewValidationError(fmt.Sprintf("Unsupported file type %q. Supported formats: %s",
		ext, strings.Join(extract.SupportedList(), ", ")))
}

// ErrorHandler maps handler errors to JSON responses. Anything that is not
// an APIError or echo.HTTPError becomes a generic 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			apiErr  *APIError
			httpErr *echo.HTTPError
		)
		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &httpErr):
			apiErr = &APIError{Status: httpErr.Code, Message: fmt.Sprintf("%v", httpErr.Message)}
		default:
			log.Error("request failed",
				zap.String("uri", c.Request().RequestURI),
				zap.String("request_id", requestID(c)),
				zap.Error(err),
			)
			apiErr = &APIError{Status: http.StatusInternalServerError, Message: internalErrorMessage}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(apiErr.Status)
		} else {
			err = c.JSON(apiErr.Status, apiErr)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}
