// file: internal/server/error_handler.go
// version: 2.0.0
// guid: 5d6e7f8a-9b0c-1d2e-3f4a-5b6c7d8e9f0a

package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse provides a consistent error response format
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Status int    `json:"status"`
}

// RespondWithError sends a standardized error response and logs the error
func RespondWithError(c *gin.Context, statusCode int, message string, code string) {
	logErrorWithContext(c, statusCode, message)

	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:  message,
		Code:   code,
		Status: statusCode,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error response
func RespondWithBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, message, "BAD_REQUEST")
}

// RespondWithValidationError sends a 400 error for validation failures
func RespondWithValidationError(c *gin.Context, field string, reason string) {
	message := "validation error: " + field
	if reason != "" {
		message = message + " (" + reason + ")"
	}
	RespondWithError(c, http.StatusBadRequest, message, "VALIDATION_ERROR")
}

// RespondWithNotFound sends a 404 Not Found error response
func RespondWithNotFound(c *gin.Context, resourceType string, id string) {
	message := resourceType + " not found"
	if id != "" {
		message = message + ": " + id
	}
	RespondWithError(c, http.StatusNotFound, message, "NOT_FOUND")
}

// RespondWithBadGateway reports that every upstream provider failed.
func RespondWithBadGateway(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadGateway, message, "RETRIEVAL_FAILED")
}

// RespondWithInternalError sends a 500 Internal Server Error response
func RespondWithInternalError(c *gin.Context, message string) {
	RespondWithError(c, http.StatusInternalServerError, message, "INTERNAL_ERROR")
}

// RespondWithOK sends a 200 OK response
func RespondWithOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, ItemResponse{Data: data})
}

// logErrorWithContext logs an error with request context for debugging
func logErrorWithContext(c *gin.Context, statusCode int, message string) {
	logger := loggerFrom(c)
	attrs := []any{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", statusCode,
		"client", c.ClientIP(),
	}
	if statusCode >= 500 {
		logger.Error(message, attrs...)
		return
	}
	logger.Warn(message, attrs...)
}

// ParseQueryInt parses an integer query parameter. A missing parameter yields
// defaultValue; a malformed one is an error.
func ParseQueryInt(c *gin.Context, key string, defaultValue int) (int, error) {
	valueStr := strings.TrimSpace(c.Query(key))
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(valueStr)
}

// ParseQueryDuration accepts either a Go duration ("2s") or a bare number of
// seconds ("2").
func ParseQueryDuration(c *gin.Context, key string) (time.Duration, error) {
	valueStr := strings.TrimSpace(c.Query(key))
	if valueStr == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(valueStr)
}

// ParseQueryString returns a query parameter and whether it was given at all.
func ParseQueryString(c *gin.Context, key string) (string, bool) {
	return c.GetQuery(key)
}
