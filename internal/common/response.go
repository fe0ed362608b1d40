package common

import (
	"errors"
	"net/http"

	pkglogger "github.com/fieldsense/fieldsense-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON error body returned by every endpoint
type ErrorBody struct {
	Message string `json:"message"`
}

// ErrorResponse writes {message} and logs the underlying error server-side.
// The client only ever sees the generic message.
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	if err != nil {
		event := pkglogger.GetLogger().Warn()
		if status >= http.StatusInternalServerError {
			event = pkglogger.GetLogger().Error()
		}
		event.
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Msg(message)
	}
	c.AbortWithStatusJSON(status, ErrorBody{Message: message})
}

// StatusFor maps a business error to its HTTP status code
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrReportNotFound),
		errors.Is(err, ErrDetectionNotFound),
		errors.Is(err, ErrAnalyticNotFound),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrReportAlreadyProcessed), errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// SuccessResponse returns a 200 JSON response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// CreatedResponse returns a 201 JSON response
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// ServiceError maps a service error to a response. Client errors carry the
// sentinel text; server errors only carry fallback.
func ServiceError(c *gin.Context, err error, fallback string) {
	status := StatusFor(err)
	message := fallback
	if status < http.StatusInternalServerError {
		message = err.Error()
	}
	ErrorResponse(c, status, message, err)
}
