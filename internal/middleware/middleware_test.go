package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackswift/internal/auth"
	"trackswift/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(tokens *auth.Tokens, accounts AccountLoader) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(logger.Nop()))
	api := r.Group("/api", AuthMiddleware(tokens, accounts))
	api.GET("/me", func(c *gin.Context) {
		user, tenant := Identity(c)
		c.JSON(http.StatusOK, gin.H{"user": user, "tenant": tenant})
	})
	api.GET("/admin", RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokens("0123456789abcdef", time.Hour)
	r := newRouter(tokens, nil)

	w := get(r, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header is required")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = get(r, "/api/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := tokens.GenerateToken("u1", "t1", "user")
	require.NoError(t, err)
	w = get(r, "/api/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u1","tenant":"t1"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokens("0123456789abcdef", time.Hour)
	r := newRouter(tokens, nil)

	user, err := tokens.GenerateToken("u1", "t1", "user")
	require.NoError(t, err)
	admin, err := tokens.GenerateToken("u2", "t1", "admin")
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, get(r, "/api/admin", user).Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/api/admin", admin).Code)
}

func TestAuthMiddlewareRechecksAccount(t *testing.T) {
	tokens := auth.NewTokens("0123456789abcdef", time.Hour)
	accounts := map[string]Account{
		"active":   {Role: "user", Active: true},
		"inactive": {Role: "user", Active: false},
		"demoted":  {Role: "user", Active: true},
	}
	r := newRouter(tokens, func(_ context.Context, userID, tenantID string) (Account, error) {
		assert.Equal(t, "t1", tenantID)
		if userID == "broken" {
			return Account{}, errors.New("db down")
		}
		a, ok := accounts[userID]
		if !ok {
			return Account{}, ErrUnknownAccount
		}
		return a, nil
	})
	token := func(userID, role string) string {
		tok, err := tokens.GenerateToken(userID, "t1", role)
		require.NoError(t, err)
		return tok
	}

	assert.Equal(t, http.StatusOK, get(r, "/api/me", token("active", "user")).Code)

	w := get(r, "/api/me", token("inactive", "user"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Account is deactivated")

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/me", token("gone", "user")).Code)
	assert.Equal(t, http.StatusInternalServerError, get(r, "/api/me", token("broken", "user")).Code)

	// The stored role wins over the one in the token.
	assert.Equal(t, http.StatusForbidden, get(r, "/api/admin", token("demoted", "admin")).Code)
}

func TestSecureHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecureHeaders(false, logger.Nop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
