package middleware

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"shutterhub/api/internal/session"
)

// Page routes the guard knows about.
const (
	PathHome                  = "/"
	PathPartnerLogin          = "/partner/login"
	PathPartnerSignup         = "/partner/signup"
	PathPartnerForgotPassword = "/partner/forgot-password"
	PathPartnerDashboard      = "/partner/dashboard"
	PathAdminLogin            = "/admin"

	apiPrefix      = "/api"
	internalPrefix = "/_"
)

var publicPaths = map[string]struct{}{
	PathHome:                  {},
	PathPartnerLogin:          {},
	PathPartnerSignup:         {},
	PathPartnerForgotPassword: {},
	PathAdminLogin:            {},
}

// Decision is the guard's verdict for one navigation. A zero Decision
// allows the request.
type Decision struct {
	Redirect string
}

func (d Decision) Allowed() bool { return d.Redirect == "" }

// GuardApplies reports whether a path is subject to guarding at all. API
// calls, internal paths, and static assets (anything with an extension)
// pass through untouched.
func GuardApplies(p string) bool {
	if strings.HasPrefix(p, apiPrefix) {
		return false
	}
	if strings.HasPrefix(p, internalPrefix) {
		return false
	}
	if path.Ext(p) != "" {
		return false
	}
	return true
}

// Decide is the route-guard decision table. It is a pure function of the
// request path and the two mirrored cookies; rules are evaluated in order
// and the first match wins.
//
// The authToken value is deliberately not validated here: presence means
// "possibly authenticated" and real validation happens at the API gate.
func Decide(p, authToken, isAdmin string) Decision {
	inAdmin := p == PathAdminLogin || strings.HasPrefix(p, PathAdminLogin+"/")

	// 1. Admin namespace (excluding the login page) needs the admin flag.
	if inAdmin && p != PathAdminLogin {
		if isAdmin != session.AdminFlagValue {
			return Decision{Redirect: PathAdminLogin}
		}
		return Decision{}
	}

	// 2. Everything non-public outside the admin and API namespaces needs
	// a token.
	if _, public := publicPaths[p]; !public && !inAdmin && !strings.HasPrefix(p, apiPrefix) {
		if authToken == "" {
			return Decision{Redirect: PathPartnerLogin}
		}
	}

	// 3. Signed-in partners don't revisit the auth pages.
	if (p == PathPartnerLogin || p == PathPartnerSignup) && authToken != "" && isAdmin != session.AdminFlagValue {
		return Decision{Redirect: PathPartnerDashboard}
	}

	return Decision{}
}

// Guard applies Decide to every page navigation, reading only the mirrored
// cookies so the verdict needs no provider round trip.
func Guard(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if !GuardApplies(p) {
			c.Next()
			return
		}

		authToken, _ := c.Cookie(session.CookieAuthToken)
		isAdmin, _ := c.Cookie(session.CookieIsAdmin)

		decision := Decide(p, authToken, isAdmin)
		if !decision.Allowed() {
			log.Debug().
				Str("path", p).
				Str("redirect", decision.Redirect).
				Msg("route guard redirect")
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
			return
		}

		c.Next()
	}
}
