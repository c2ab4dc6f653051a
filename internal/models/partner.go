package models

import "time"

type PartnerStatus string

const (
	PartnerStatusActive    PartnerStatus = "active"
	PartnerStatusSuspended PartnerStatus = "suspended"
)

// Partner is a photographer account. Subject is the identity provider's
// stable identifier for the signed-in principal; it is the join key between
// provider sessions and everything we persist locally.
type Partner struct {
	ID          string
	Subject     string
	Email       string
	DisplayName string
	Phone       string
	Status      PartnerStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Admin is a console operator. Admin credentials are checked locally and
// never go through the identity provider.
type Admin struct {
	ID           string
	Email        string
	PasswordHash []byte
	DisplayName  string
	CreatedAt    time.Time
}

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusClosed    LeadStatus = "closed"
)

type Lead struct {
	ID          string     `json:"id"`
	PartnerID   string     `json:"-"`
	ClientName  string     `json:"clientName"`
	ClientEmail string     `json:"clientEmail"`
	EventType   string     `json:"eventType"`
	EventDate   *time.Time `json:"eventDate,omitempty"`
	Message     string     `json:"message"`
	Status      LeadStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Booking struct {
	ID          string    `json:"id"`
	PartnerID   string    `json:"-"`
	ClientName  string    `json:"clientName"`
	EventType   string    `json:"eventType"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	AmountCents int64     `json:"amountCents"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Review struct {
	ID         string    `json:"id"`
	PartnerID  string    `json:"-"`
	ClientName string    `json:"clientName"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}
