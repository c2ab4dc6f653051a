package models

import "time"

type OnboardingStatus string

const (
	OnboardingStatusIncomplete          OnboardingStatus = "incomplete"
	OnboardingStatusPendingVerification OnboardingStatus = "pending_verification"
	OnboardingStatusVerified            OnboardingStatus = "verified"
	OnboardingStatusRejected            OnboardingStatus = "rejected"
)

// Onboarding form sections, in order. A record's Step is the section the
// partner should see next.
const (
	StepBasicInfo = 1
	StepServices  = 2
	StepLocations = 3
	StepPortfolio = 4
	StepDocuments = 5
)

type BasicInfo struct {
	BusinessName    string `json:"businessName"`
	Bio             string `json:"bio"`
	ExperienceYears int    `json:"experienceYears"`
	Phone           string `json:"phone"`
}

type PartnerService struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"priceCents"`
}

type Document struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// OnboardingRecord is the server-owned onboarding state for one partner.
// Step and Progress are only ever computed server-side; clients treat the
// whole record as an opaque cache refreshed after every mutation.
type OnboardingRecord struct {
	PartnerID     string           `json:"partnerId"`
	Step          int              `json:"step"`
	Progress      int              `json:"progress"`
	Status        OnboardingStatus `json:"status"`
	BasicInfo     BasicInfo        `json:"basicInfo"`
	Services      []PartnerService `json:"services"`
	Locations     []string         `json:"locations"`
	PortfolioURLs []string         `json:"portfolioUrls"`
	Documents     []Document       `json:"documents"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// NewOnboardingRecord is the state a partner with no persisted record
// starts from.
func NewOnboardingRecord(partnerID string) OnboardingRecord {
	return OnboardingRecord{
		PartnerID: partnerID,
		Step:      StepBasicInfo,
		Progress:  0,
		Status:    OnboardingStatusIncomplete,
	}
}

func (r OnboardingRecord) Terminal() bool {
	return r.Status == OnboardingStatusVerified || r.Status == OnboardingStatusRejected
}
