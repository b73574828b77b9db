package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-tracker/internal/config"
	"pet-tracker/internal/domain/user"
	"pet-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/matryer/is"
)

func newTestRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())

	protected := r.Group("", AuthMiddleware(cfg))
	protected.GET("/me", func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	protected.GET("/admin", AdminOnly(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	is := is.New(t)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	r := newTestRouter(cfg)
	userID := uuid.New()

	token, err := utils.GenerateToken(userID, "owner@example.com", user.RoleOwner, cfg.JWT.Secret, time.Hour)
	is.NoErr(err)

	w := do(r, "/me", token)
	is.Equal(w.Code, http.StatusOK)
	is.Equal(w.Body.String(), userID.String())
	is.True(w.Header().Get(RequestIDHeader) != "")

	is.Equal(do(r, "/me", "").Code, http.StatusUnauthorized)
	is.Equal(do(r, "/me", "garbage").Code, http.StatusUnauthorized)
}

func TestAdminOnly(t *testing.T) {
	is := is.New(t)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	r := newTestRouter(cfg)

	owner, _ := utils.GenerateToken(uuid.New(), "o@example.com", user.RoleOwner, cfg.JWT.Secret, time.Hour)
	admin, _ := utils.GenerateToken(uuid.New(), "a@example.com", user.RoleAdmin, cfg.JWT.Secret, time.Hour)

	is.Equal(do(r, "/admin", owner).Code, http.StatusForbidden)
	is.Equal(do(r, "/admin", admin).Code, http.StatusNoContent)
}

func TestRequestIDIsPropagated(t *testing.T) {
	is := is.New(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	is.Equal(w.Body.String(), "req-123")
	is.Equal(w.Header().Get(RequestIDHeader), "req-123")
}
