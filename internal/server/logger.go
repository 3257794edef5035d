// file: internal/server/logger.go
// version: 2.0.0
// guid: 1d2e3f4a-5b6c-7d8e-9f0a-1b2c3d4e5f6a

package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const (
	loggerKey       = "spit.logger"
	requestIDHeader = "X-Request-ID"
)

// RequestLogger attaches a request-scoped logger to the context and logs
// every response once it has been written.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	if base == nil {
		base = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = ulid.Make().String()
		}
		c.Header(requestIDHeader, requestID)

		logger := base.With("request_id", requestID)
		c.Set(loggerKey, logger)

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration", time.Since(start),
			"client", c.ClientIP(),
		}
		switch {
		case status >= 500:
			logger.Error("Request failed", attrs...)
		case status >= 400:
			logger.Warn("Request rejected", attrs...)
		default:
			logger.Debug("Request served", attrs...)
		}
	}
}

// loggerFrom returns the request-scoped logger, falling back to the default.
func loggerFrom(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if logger, ok := v.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}
