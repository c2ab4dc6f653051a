package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"shutterhub/api/internal/identity"
	"shutterhub/api/internal/models"
	"shutterhub/api/internal/repository"
	"shutterhub/api/internal/session"
)

// Auth is the API-layer gate. Unlike the route guard it does inspect the
// token: claims are parsed, expiry is enforced, and the partner row must
// exist. Accepts the mirrored cookie or a Bearer header.
func Auth(partners *repository.PartnerRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, _ := c.Cookie(session.CookieAuthToken)
		if tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		principal, err := identity.ParseIDToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		if principal.Expired(time.Now()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_expired"})
			return
		}

		partner, err := partners.FindBySubject(c.Request.Context(), principal.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "partner_not_found"})
			return
		}
		if partner.Status != models.PartnerStatusActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "partner_suspended"})
			return
		}

		c.Set("principal", principal)
		c.Set("current_partner", partner)

		c.Next()
	}
}

// RequireAdmin gates the admin API on the isAdmin trust flag. The flag is
// an independent trust boundary; it is never derived from the identity
// provider.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		flag, _ := c.Cookie(session.CookieIsAdmin)
		if flag != session.AdminFlagValue {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_required"})
			return
		}
		c.Next()
	}
}
