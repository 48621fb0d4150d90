package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	sharedlogger "github.com/uniedit/reelforge/internal/shared/logger"
)

// Logging returns a middleware that logs HTTP requests. Server errors log at
// Error, client errors at Warn. Handlers find a request-scoped logger with
// logger.FromContext.
func Logging(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		requestLogger := logger
		if id := GetRequestID(c); id != "" {
			requestLogger = logger.With(zap.String("request_id", id))
		}
		c.Request = c.Request.WithContext(sharedlogger.ContextWithLogger(c.Request.Context(), requestLogger))

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if id := GetRequestID(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if projectID := c.Param("id"); projectID != "" {
			fields = append(fields, zap.String("project_id", projectID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case status >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}
