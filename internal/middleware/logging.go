package middleware

import (
	"time"

	"pet-tracker/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// route parameters worth carrying into every log line
var resourceParams = []struct{ param, field string }{
	{"petId", "pet_id"},
	{"deviceId", "device_id"},
	{"zoneId", "zone_id"},
}

// RequestLogger scopes the process logger to one request: its id, the calling owner
// once authenticated, and the pet, device or zone the route addresses.
func RequestLogger(c *gin.Context) *zap.Logger {
	log := logger.WithRequestID(GetRequestID(c))
	if ownerID, ok := CurrentUserID(c); ok {
		log = log.With(zap.String("owner_id", ownerID.String()))
	}
	for _, p := range resourceParams {
		if v := c.Param(p.param); v != "" {
			log = log.With(zap.String(p.field, v))
		}
	}
	return log
}

// LoggingMiddleware writes one line per request after the chain ran, when the owner is known.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		statusCode := c.Writer.Status()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status_code", statusCode),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if query := c.Request.URL.RawQuery; query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			fields = append(fields, zap.String("error", errorMessage))
		}

		log := RequestLogger(c)
		switch {
		case statusCode >= 500:
			log.Error("Request completed with server error", fields...)
		case statusCode >= 400:
			log.Warn("Request completed with client error", fields...)
		default:
			log.Info("Request completed", fields...)
		}
	}
}
