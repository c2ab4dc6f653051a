package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shutterhub/api/internal/session"
)

var cookieStates = []struct {
	name      string
	authToken string
	isAdmin   string
}{
	{"no cookies", "", ""},
	{"token only", "eyJ.some.token", ""},
	{"admin only", "", "true"},
	{"token and admin", "eyJ.some.token", "true"},
	{"garbage admin flag", "eyJ.some.token", "yes"},
}

func TestAdminNamespaceRequiresAdminFlag(t *testing.T) {
	adminPaths := []string{
		"/admin/partners",
		"/admin/partners/abc123",
		"/admin/settings",
	}

	for _, p := range adminPaths {
		for _, state := range cookieStates {
			d := Decide(p, state.authToken, state.isAdmin)
			if state.isAdmin == session.AdminFlagValue {
				assert.True(t, d.Allowed(), "%s with %s", p, state.name)
			} else {
				assert.Equal(t, PathAdminLogin, d.Redirect, "%s with %s", p, state.name)
			}
		}
	}
}

func TestAdminLoginPageIsPublic(t *testing.T) {
	// Allowed for every cookie state: only partner auth pages bounce
	// signed-in users.
	for _, state := range cookieStates {
		d := Decide(PathAdminLogin, state.authToken, state.isAdmin)
		assert.True(t, d.Allowed(), "admin login with %s", state.name)
	}
}

func TestProtectedPathsRequireToken(t *testing.T) {
	protected := []string{
		PathPartnerDashboard,
		"/partner/onboarding",
		"/partner/leads",
		"/partner/bookings",
		"/some/new/page",
	}

	for _, p := range protected {
		d := Decide(p, "", "")
		require.Equal(t, PathPartnerLogin, d.Redirect, "path %s without token", p)

		d = Decide(p, "eyJ.some.token", "")
		assert.True(t, d.Allowed(), "path %s with token", p)
	}
}

func TestPublicPathsAllowAnonymous(t *testing.T) {
	for _, p := range []string{PathHome, PathPartnerLogin, PathPartnerSignup, PathPartnerForgotPassword, PathAdminLogin} {
		d := Decide(p, "", "")
		assert.True(t, d.Allowed(), "public path %s", p)
	}
}

func TestSignedInPartnerBouncedFromAuthPages(t *testing.T) {
	for _, p := range []string{PathPartnerLogin, PathPartnerSignup} {
		d := Decide(p, "eyJ.some.token", "")
		assert.Equal(t, PathPartnerDashboard, d.Redirect, "path %s", p)

		// The admin flag suppresses the bounce.
		d = Decide(p, "eyJ.some.token", session.AdminFlagValue)
		assert.True(t, d.Allowed(), "path %s with admin flag", p)
	}

	// Forgot-password stays reachable while signed in.
	d := Decide(PathPartnerForgotPassword, "eyJ.some.token", "")
	assert.True(t, d.Allowed())
}

func TestDecideIsIdempotent(t *testing.T) {
	paths := []string{
		PathHome, PathPartnerLogin, PathPartnerSignup, PathPartnerDashboard,
		PathAdminLogin, "/admin/partners", "/partner/onboarding", "/anything",
	}
	for _, p := range paths {
		for _, state := range cookieStates {
			first := Decide(p, state.authToken, state.isAdmin)
			second := Decide(p, state.authToken, state.isAdmin)
			assert.Equal(t, first, second, "%s with %s", p, state.name)
		}
	}
}

func TestGuardApplies(t *testing.T) {
	assert.True(t, GuardApplies("/partner/dashboard"))
	assert.True(t, GuardApplies("/"))
	assert.True(t, GuardApplies("/admin/partners"))

	assert.False(t, GuardApplies("/api/v1/auth/login"))
	assert.False(t, GuardApplies("/_internal/health"))
	assert.False(t, GuardApplies("/assets/logo.svg"))
	assert.False(t, GuardApplies("/favicon.ico"))
}
