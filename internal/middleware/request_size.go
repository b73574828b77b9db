package middleware

import (
	"net/http"

	"pet-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes comfortably fits the largest body the API accepts, a safe-zone create.
const DefaultMaxBodyBytes = 64 << 10

// BodyLimitMiddleware guards write endpoints. A body must be JSON and at most maxSize bytes.
// Bodiless calls such as toggle, deactivate and sync pass through.
func BodyLimitMiddleware(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodyBytes
	}

	return func(c *gin.Context) {
		if !carriesBody(c.Request) {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxSize {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large")
			c.Abort()
			return
		}
		if c.ContentType() != gin.MIMEJSON {
			utils.ErrorResponse(c, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

func carriesBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	// -1 means unknown length, e.g. chunked
	return r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody
}
