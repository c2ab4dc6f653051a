package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shutterhub/api/internal/identity"
	"shutterhub/api/internal/models"
	"shutterhub/api/internal/service"
	"shutterhub/api/internal/session"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type partnerResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Phone       string `json:"phone"`
	Status      string `json:"status"`
}

type sessionResponse struct {
	Subject       string    `json:"subject"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type authResponse struct {
	Partner partnerResponse `json:"partner"`
	Session sessionResponse `json:"session"`
}

func toPartnerResponse(p models.Partner) partnerResponse {
	return partnerResponse{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Phone:       p.Phone,
		Status:      string(p.Status),
	}
}

func toSessionResponse(p *identity.Principal) sessionResponse {
	if p == nil {
		return sessionResponse{}
	}
	return sessionResponse{
		Subject:       p.Subject,
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
		ExpiresAt:     p.ExpiresAt,
	}
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
			return
		}
		h.log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	result.Mirror.Apply(c.Writer)
	c.JSON(http.StatusOK, authResponse{
		Partner: toPartnerResponse(result.Partner),
		Session: toSessionResponse(result.Session.Principal),
	})
}

type signupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"required"`
	Phone       string `json:"phone"`
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), service.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result.Mirror.Apply(c.Writer)
	c.JSON(http.StatusCreated, authResponse{
		Partner: toPartnerResponse(result.Partner),
		Session: toSessionResponse(result.Session.Principal),
	})
}

// Logout is reachable without the auth middleware: a half-dead session with
// stale cookies must still be able to clear them. The cookies go away on
// this response no matter what the provider says.
func (h HandlerSet) Logout(c *gin.Context) {
	mirror := session.NewCookieMirror(h.cfg.Security.CookieDomain, h.cfg.Security.CookieSecure)
	mirror.ClearToken()
	mirror.ClearAdmin()

	// Revoke against the provider when the cookie still names a subject.
	// Failure doesn't matter: the cookies go away on this response.
	token, _ := c.Cookie(session.CookieAuthToken)
	if token != "" {
		if principal, err := identity.ParseIDToken(token); err == nil {
			if err := h.authService.Logout(c.Request.Context(), principal.Subject); err != nil {
				h.log.Warn().Err(err).Str("subject", principal.Subject).Msg("provider sign-out failed")
			}
		}
	}

	mirror.Apply(c.Writer)
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

type passwordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) PasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		// Same answer either way so the endpoint can't be used to probe
		// which emails exist.
		h.log.Debug().Err(err).Msg("password reset request failed")
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "reset_email_sent"})
}

// Session reports the live session for the authenticated partner and
// re-applies the cookie mirror, picking up token refreshes and a
// just-verified email.
func (h HandlerSet) Session(c *gin.Context) {
	partner := currentPartner(c)

	store, err := h.authService.CurrentSession(c.Request.Context(), partner.Subject)
	if errors.Is(err, service.ErrNoActiveSession) {
		// Valid cookie but no live store (e.g. after a restart). The cookie
		// principal is still the best answer we have.
		principal, _ := c.Get("principal")
		p, _ := principal.(*identity.Principal)
		c.JSON(http.StatusOK, authResponse{
			Partner: toPartnerResponse(partner),
			Session: toSessionResponse(p),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	store.Mirror().Apply(c.Writer)
	c.JSON(http.StatusOK, authResponse{
		Partner: toPartnerResponse(partner),
		Session: toSessionResponse(store.Principal()),
	})
}

func currentPartner(c *gin.Context) models.Partner {
	val, _ := c.Get("current_partner")
	partner, _ := val.(models.Partner)
	return partner
}
