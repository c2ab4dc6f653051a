package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shutterhub/api/internal/middleware"
	"shutterhub/api/internal/models"
	"shutterhub/api/internal/onboarding"
	"shutterhub/api/internal/repository"
)

const maxUploadFiles = 10

func (h HandlerSet) OnboardingStatus(c *gin.Context) {
	partner := currentPartner(c)

	record, err := h.onboardingSvc.Status(c.Request.Context(), partner.ID)
	if err != nil {
		h.log.Error().Err(err).Str("partner_id", partner.ID).Msg("load onboarding status failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, record)
}

type basicInfoRequest struct {
	BusinessName    string `json:"businessName" binding:"required"`
	Bio             string `json:"bio"`
	ExperienceYears int    `json:"experienceYears" binding:"min=0"`
	Phone           string `json:"phone"`
}

func (h HandlerSet) SubmitBasicInfo(c *gin.Context) {
	partner := currentPartner(c)

	var req basicInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.onboardingSvc.SubmitBasicInfo(c.Request.Context(), partner.ID, models.BasicInfo{
		BusinessName:    req.BusinessName,
		Bio:             req.Bio,
		ExperienceYears: req.ExperienceYears,
		Phone:           req.Phone,
	})
	if err != nil {
		h.log.Error().Err(err).Str("partner_id", partner.ID).Msg("save basic info failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, record)
}

type serviceRequest struct {
	Name       string `json:"name" binding:"required"`
	Category   string `json:"category" binding:"required"`
	PriceCents int64  `json:"priceCents" binding:"min=0"`
}

func (h HandlerSet) AddService(c *gin.Context) {
	partner := currentPartner(c)

	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.onboardingSvc.AddService(c.Request.Context(), partner.ID, models.PartnerService{
		Name:       req.Name,
		Category:   req.Category,
		PriceCents: req.PriceCents,
	})
	if errors.Is(err, repository.ErrOnboardingNotFound) {
		// Services come after basic info; there is nothing to attach to yet.
		c.JSON(http.StatusConflict, gin.H{"error": "basic_info_required"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("partner_id", partner.ID).Msg("add service failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, record)
}

type locationsRequest struct {
	Locations []string `json:"locations" binding:"required,min=1"`
}

func (h HandlerSet) SetLocations(c *gin.Context) {
	partner := currentPartner(c)

	var req locationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.onboardingSvc.SetLocations(c.Request.Context(), partner.ID, req.Locations)
	if errors.Is(err, repository.ErrOnboardingNotFound) {
		c.JSON(http.StatusConflict, gin.H{"error": "basic_info_required"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("partner_id", partner.ID).Msg("set locations failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h HandlerSet) UploadPortfolio(c *gin.Context) {
	partner := currentPartner(c)

	files, ok := formFiles(c)
	if !ok {
		return
	}

	urls := make([]string, 0, len(files))
	for _, header := range files {
		url, err := h.storeUpload(c.Request.Context(), header, func(ctx context.Context, r multipart.File, header *multipart.FileHeader) (string, error) {
			return h.store.PutPortfolioAsset(ctx, partner.ID, header.Filename, r, header.Size, header.Header.Get("Content-Type"))
		})
		if err != nil {
			h.log.Error().Err(err).Str("partner_id", partner.ID).Str("file", header.Filename).Msg("portfolio upload failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "storage_unavailable"})
			return
		}
		urls = append(urls, url)
	}

	record, err := h.onboardingSvc.AddPortfolio(c.Request.Context(), partner.ID, urls)
	if errors.Is(err, repository.ErrOnboardingNotFound) {
		c.JSON(http.StatusConflict, gin.H{"error": "basic_info_required"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("partner_id", partner.ID).Msg("record portfolio failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h HandlerSet) UploadDocuments(c *gin.Context) {
	partner := currentPartner(c)

	files, ok := formFiles(c)
	if !ok {
		return
	}
	names := c.PostFormArray("names")

	docs := make([]models.Document, 0, len(files))
	for i, header := range files {
		url, err := h.storeUpload(c.Request.Context(), header, func(ctx context.Context, r multipart.File, header *multipart.FileHeader) (string, error) {
			return h.store.PutDocument(ctx, partner.ID, header.Filename, r, header.Size, header.Header.Get("Content-Type"))
		})
		if err != nil {
			h.log.Error().Err(err).Str("partner_id", partner.ID).Str("file", header.Filename).Msg("document upload failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "storage_unavailable"})
			return
		}

		name := header.Filename
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		// The onboarding service mints document IDs.
		docs = append(docs, models.Document{Name: name, URL: url})
	}

	record, err := h.onboardingSvc.AddDocuments(c.Request.Context(), partner.ID, docs)
	if errors.Is(err, repository.ErrOnboardingNotFound) {
		c.JSON(http.StatusConflict, gin.H{"error": "basic_info_required"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("partner_id", partner.ID).Msg("record documents failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h HandlerSet) CompleteOnboarding(c *gin.Context) {
	partner := currentPartner(c)

	record, err := h.onboardingSvc.Complete(c.Request.Context(), partner.ID)
	if errors.Is(err, repository.ErrOnboardingNotFound) {
		c.JSON(http.StatusConflict, gin.H{"error": "basic_info_required"})
		return
	}
	if errors.Is(err, onboarding.ErrAlreadyDecided) {
		c.JSON(http.StatusConflict, gin.H{"error": "already_decided"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("partner_id", partner.ID).Msg("complete onboarding failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// WaitForVerification long-polls until the record leaves
// pending_verification, then tells the client where to go next.
func (h HandlerSet) WaitForVerification(c *gin.Context) {
	partner := currentPartner(c)

	wait := h.cfg.HTTP.WriteTimeout
	if wait <= 0 {
		wait = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
	defer cancel()

	outcome, err := h.watcher.Wait(ctx, partner.ID)
	if err != nil {
		c.JSON(http.StatusRequestTimeout, gin.H{"status": "pending_verification"})
		return
	}

	resp := gin.H{"status": string(outcome)}
	switch outcome {
	case onboarding.OutcomeVerified:
		resp["redirect"] = middleware.PathPartnerDashboard
	case onboarding.OutcomeIncomplete:
		resp["redirect"] = "/partner/onboarding"
	}
	c.JSON(http.StatusOK, resp)
}

func formFiles(c *gin.Context) ([]*multipart.FileHeader, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart_form_required"})
		return nil, false
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "files_required"})
		return nil, false
	}
	if len(files) > maxUploadFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too_many_files"})
		return nil, false
	}
	return files, true
}

func (h HandlerSet) storeUpload(
	ctx context.Context,
	header *multipart.FileHeader,
	put func(ctx context.Context, r multipart.File, header *multipart.FileHeader) (string, error),
) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()
	return put(ctx, file, header)
}
