package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/"

// SecurityHeadersMiddleware sets headers for a JSON-only API. API responses carry owner
// phone numbers and pet locations, so they are never cached. HSTS is only sent in
// production and only over https, directly or behind a proxy.
func SecurityHeadersMiddleware(environment string) gin.HandlerFunc {
	production := environment == "production"

	return func(c *gin.Context) {
		headers := c.Writer.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		// nothing served here is meant to be rendered by a browser
		headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if strings.HasPrefix(c.Request.URL.Path, apiPrefix) {
			headers.Set("Cache-Control", "no-store")
			headers.Set("Pragma", "no-cache")
		}
		if production && isHTTPS(c) {
			headers.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

func isHTTPS(c *gin.Context) bool {
	return c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}
