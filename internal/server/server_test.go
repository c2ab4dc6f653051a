package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"shutterhub/api/internal/config"
	"shutterhub/api/internal/handlers"
	"shutterhub/api/internal/middleware"
	"shutterhub/api/internal/session"
)

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()

	cfg := &config.AppConfig{
		Environment: "test",
		HTTP: config.HTTPConfig{
			Host: "127.0.0.1",
			Port: 0,
		},
		Security: config.SecurityConfig{
			TokenCookieTTL: 24 * time.Hour,
			AdminCookieTTL: 12 * time.Hour,
		},
	}
	logger := zerolog.Nop()
	manager := session.NewManager(context.Background(), logger)
	t.Cleanup(manager.Shutdown)

	handlerSet := handlers.NewHandlerSet(logger, nil, nil, nil, manager, cfg)
	return NewHTTPServer(cfg, logger, handlerSet)
}

func get(srv *HTTPServer, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	srv.engine.ServeHTTP(w, req)
	return w
}

func TestProtectedPageRedirectsAnonymousToLogin(t *testing.T) {
	srv := newTestServer(t)

	w := get(srv, "/partner/dashboard")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, middleware.PathPartnerLogin, w.Header().Get("Location"))
}

func TestProtectedPageServesAppShellWhenSignedIn(t *testing.T) {
	srv := newTestServer(t)

	w := get(srv, "/partner/dashboard", &http.Cookie{Name: session.CookieAuthToken, Value: "tok"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `<div id="root">`)
}

func TestAdminPageRedirectsWithoutAdminFlag(t *testing.T) {
	srv := newTestServer(t)

	w := get(srv, "/admin/partners", &http.Cookie{Name: session.CookieAuthToken, Value: "tok"})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, middleware.PathAdminLogin, w.Header().Get("Location"))
}

func TestAdminPageServedWithAdminFlag(t *testing.T) {
	srv := newTestServer(t)

	w := get(srv, "/admin/partners",
		&http.Cookie{Name: session.CookieIsAdmin, Value: session.AdminFlagValue})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<div id="root">`)
}

func TestUnknownAPIPathIsJSONNotFound(t *testing.T) {
	srv := newTestServer(t)

	w := get(srv, "/api/v1/nope")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestAssetPathsBypassTheGuard(t *testing.T) {
	srv := newTestServer(t)

	// Paths with extensions are never guarded, so an anonymous request is
	// not redirected even though it 404s here.
	w := get(srv, "/static/app.css")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
