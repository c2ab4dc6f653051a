package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"shutterhub/api/internal/models"
	"shutterhub/api/internal/onboarding"
	"shutterhub/api/internal/repository"
	"shutterhub/api/internal/security"
)

// AdminService authenticates console operators against the local admins
// table and drives verification verdicts. Admins never touch the identity
// provider; their credential is an argon2id hash we store ourselves.
type AdminService struct {
	admins     *repository.AdminRepository
	partners   *repository.PartnerRepository
	onboarding *onboarding.Service
	log        zerolog.Logger
}

func NewAdminService(
	admins *repository.AdminRepository,
	partners *repository.PartnerRepository,
	onboardingSvc *onboarding.Service,
	log zerolog.Logger,
) *AdminService {
	return &AdminService{
		admins:     admins,
		partners:   partners,
		onboarding: onboardingSvc,
		log:        log,
	}
}

func (s *AdminService) Login(ctx context.Context, email, password string) (models.Admin, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	admin, err := s.admins.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrAdminNotFound) {
		return models.Admin{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Admin{}, fmt.Errorf("find admin: %w", err)
	}

	ok, err := security.VerifyPassword(password, admin.PasswordHash)
	if err != nil || !ok {
		return models.Admin{}, ErrInvalidCredentials
	}
	return admin, nil
}

// ReviewEntry pairs a partner with its onboarding record for the console
// queue.
type ReviewEntry struct {
	Partner    models.Partner          `json:"partner"`
	Onboarding models.OnboardingRecord `json:"onboarding"`
}

func (s *AdminService) ReviewQueue(ctx context.Context, status models.OnboardingStatus, limit, offset int) ([]ReviewEntry, error) {
	partners, err := s.partners.ListByOnboardingStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}

	entries := make([]ReviewEntry, 0, len(partners))
	for _, p := range partners {
		record, err := s.onboarding.Status(ctx, p.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("partner_id", p.ID).Msg("skip partner with unloadable onboarding record")
			continue
		}
		entries = append(entries, ReviewEntry{Partner: p, Onboarding: record})
	}
	return entries, nil
}

func (s *AdminService) Approve(ctx context.Context, partnerID string) (models.OnboardingRecord, error) {
	return s.onboarding.Review(ctx, partnerID, models.OnboardingStatusVerified)
}

func (s *AdminService) Reject(ctx context.Context, partnerID string) (models.OnboardingRecord, error) {
	return s.onboarding.Review(ctx, partnerID, models.OnboardingStatusRejected)
}

// RequestChanges sends a submission back to the partner for edits.
func (s *AdminService) RequestChanges(ctx context.Context, partnerID string) (models.OnboardingRecord, error) {
	return s.onboarding.Review(ctx, partnerID, models.OnboardingStatusIncomplete)
}
