package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shutterhub/api/internal/models"
	"shutterhub/api/internal/onboarding"
	"shutterhub/api/internal/repository"
	"shutterhub/api/internal/service"
	"shutterhub/api/internal/session"
)

type adminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type adminResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (h HandlerSet) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admin, err := h.adminService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
			return
		}
		h.log.Error().Err(err).Msg("admin login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	mirror := session.NewCookieMirror(h.cfg.Security.CookieDomain, h.cfg.Security.CookieSecure)
	mirror.SetAdmin(h.cfg.Security.AdminCookieTTL)
	mirror.Apply(c.Writer)

	c.JSON(http.StatusOK, adminResponse{
		ID:          admin.ID,
		Email:       admin.Email,
		DisplayName: admin.DisplayName,
	})
}

func (h HandlerSet) AdminLogout(c *gin.Context) {
	mirror := session.NewCookieMirror(h.cfg.Security.CookieDomain, h.cfg.Security.CookieSecure)
	mirror.ClearAdmin()
	mirror.Apply(c.Writer)
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

func (h HandlerSet) AdminListPartners(c *gin.Context) {
	status := models.OnboardingStatus(c.DefaultQuery("status", string(models.OnboardingStatusPendingVerification)))
	switch status {
	case models.OnboardingStatusIncomplete, models.OnboardingStatusPendingVerification,
		models.OnboardingStatusVerified, models.OnboardingStatusRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := h.adminService.ReviewQueue(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("review queue failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"partners": entries})
}

func (h HandlerSet) AdminApprove(c *gin.Context) {
	h.verdict(c, h.adminService.Approve)
}

func (h HandlerSet) AdminReject(c *gin.Context) {
	h.verdict(c, h.adminService.Reject)
}

func (h HandlerSet) AdminRequestChanges(c *gin.Context) {
	h.verdict(c, h.adminService.RequestChanges)
}

func (h HandlerSet) verdict(c *gin.Context, apply func(ctx context.Context, partnerID string) (models.OnboardingRecord, error)) {
	partnerID := c.Param("id")

	record, err := apply(c.Request.Context(), partnerID)
	switch {
	case errors.Is(err, repository.ErrOnboardingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "onboarding_not_found"})
	case errors.Is(err, onboarding.ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": "not_pending_verification"})
	case err != nil:
		h.log.Error().Err(err).Str("partner_id", partnerID).Msg("verdict failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	default:
		c.JSON(http.StatusOK, record)
	}
}
