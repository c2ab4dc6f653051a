package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shutterhub/api/internal/config"
	"shutterhub/api/internal/session"
)

func newTestHandlerSet(t *testing.T) HandlerSet {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			TokenCookieTTL: 24 * time.Hour,
			AdminCookieTTL: 12 * time.Hour,
		},
	}
	logger := zerolog.Nop()
	manager := session.NewManager(context.Background(), logger)
	t.Cleanup(manager.Shutdown)

	return NewHandlerSet(logger, nil, nil, nil, manager, cfg)
}

func findCookie(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogoutClearsCookiesWithoutSession(t *testing.T) {
	h := newTestHandlerSet(t)

	router := gin.New()
	router.POST("/api/v1/auth/logout", h.Logout)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	resp := w.Result()
	token := findCookie(t, resp, session.CookieAuthToken)
	require.NotNil(t, token, "authToken cookie must be cleared on logout")
	assert.Empty(t, token.Value)
	assert.Negative(t, token.MaxAge)

	admin := findCookie(t, resp, session.CookieIsAdmin)
	require.NotNil(t, admin, "isAdmin cookie must be cleared on logout")
	assert.Negative(t, admin.MaxAge)
}

func TestLogoutToleratesGarbageTokenCookie(t *testing.T) {
	h := newTestHandlerSet(t)

	router := gin.New()
	router.POST("/api/v1/auth/logout", h.Logout)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieAuthToken, Value: "not-a-jwt"})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "signed_out")

	token := findCookie(t, w.Result(), session.CookieAuthToken)
	require.NotNil(t, token)
	assert.Negative(t, token.MaxAge)
}

func TestAdminLogoutClearsAdminFlag(t *testing.T) {
	h := newTestHandlerSet(t)

	router := gin.New()
	router.POST("/api/v1/admin/logout", h.AdminLogout)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/logout", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	resp := w.Result()
	admin := findCookie(t, resp, session.CookieIsAdmin)
	require.NotNil(t, admin)
	assert.Negative(t, admin.MaxAge)

	// The partner token is not the admin console's to revoke.
	assert.Nil(t, findCookie(t, resp, session.CookieAuthToken))
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	h := newTestHandlerSet(t)

	router := gin.New()
	router.POST("/api/v1/auth/login", h.Login)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Result().Cookies())
}
