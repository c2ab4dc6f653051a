package session

import (
	"net/http"
	"sync"
	"time"
)

// Cookie names shared with the route guard. The guard reads them at
// request time; only this package writes them.
const (
	CookieAuthToken = "authToken"
	CookieIsAdmin   = "isAdmin"

	// AdminFlagValue is the literal the guard compares the admin cookie
	// against. Anything else counts as "not an admin".
	AdminFlagValue = "true"
)

// Mirror keeps an HTTP-visible copy of in-memory session state. The store
// writes desired cookie state through it; responses flush it with Apply.
type Mirror interface {
	SetToken(value string, ttl time.Duration)
	ClearToken()
	SetAdmin(ttl time.Duration)
	ClearAdmin()
	Apply(w http.ResponseWriter)
}

// CookieMirror buffers desired cookie state between requests. A sign-in
// binds one CookieMirror to the session store; every response belonging to
// that session calls Apply to emit the current Set-Cookie headers.
type CookieMirror struct {
	domain string
	secure bool

	mu      sync.Mutex
	cookies map[string]*http.Cookie
}

func NewCookieMirror(domain string, secure bool) *CookieMirror {
	return &CookieMirror{
		domain:  domain,
		secure:  secure,
		cookies: make(map[string]*http.Cookie),
	}
}

func (m *CookieMirror) SetToken(value string, ttl time.Duration) {
	m.set(&http.Cookie{
		Name:     CookieAuthToken,
		Value:    value,
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   int(ttl / time.Second),
		Secure:   m.secure,
		HttpOnly: false, // the browser-side app reads it back
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *CookieMirror) ClearToken() {
	m.set(&http.Cookie{
		Name:     CookieAuthToken,
		Value:    "",
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   -1,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *CookieMirror) SetAdmin(ttl time.Duration) {
	m.set(&http.Cookie{
		Name:     CookieIsAdmin,
		Value:    AdminFlagValue,
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   int(ttl / time.Second),
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *CookieMirror) ClearAdmin() {
	m.set(&http.Cookie{
		Name:     CookieIsAdmin,
		Value:    "",
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   -1,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *CookieMirror) set(c *http.Cookie) {
	m.mu.Lock()
	m.cookies[c.Name] = c
	m.mu.Unlock()
}

// Apply writes the current desired cookie state onto a response. Applying
// the same state twice is harmless.
func (m *CookieMirror) Apply(w http.ResponseWriter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cookies {
		http.SetCookie(w, c)
	}
}
