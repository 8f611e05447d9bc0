package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sjperalta/studio-finance-api/pkg/logger"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// quietPaths are hit by health checks and the docs UI and are not logged
var quietPaths = []string{"/api/v1/health", "/swagger/"}

// RequestLogger tags each request with an id and logs it once it completes.
// 5xx responses log at error level, 4xx at warn.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		for _, quiet := range quietPaths {
			if strings.HasPrefix(path, quiet) {
				return
			}
		}

		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}
		status := c.Writer.Status()

		attrs := []any{
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
		}
		if userID := GetUserID(c); userID != 0 {
			attrs = append(attrs, slog.Uint64("user_id", uint64(userID)), slog.String("role", GetUserRole(c)))
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			attrs = append(attrs, slog.String("error", msg))
		}

		switch {
		case status >= 500:
			logger.Log.Error("request failed", attrs...)
		case status >= 400:
			logger.Log.Warn("request rejected", attrs...)
		default:
			logger.Log.Info("request handled", attrs...)
		}
	}
}
