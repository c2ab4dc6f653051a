package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"shutterhub/api/internal/models"
)

// DashboardRepository serves the read-only collections the partner
// dashboard renders.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

func (r *DashboardRepository) ListLeads(ctx context.Context, partnerID string, limit int) ([]models.Lead, error) {
	const query = `
		SELECT id, partner_id, client_name, client_email, event_type, event_date, message, status, created_at
		FROM leads
		WHERE partner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, partnerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var lead models.Lead
		if err := rows.Scan(
			&lead.ID,
			&lead.PartnerID,
			&lead.ClientName,
			&lead.ClientEmail,
			&lead.EventType,
			&lead.EventDate,
			&lead.Message,
			&lead.Status,
			&lead.CreatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *DashboardRepository) ListBookings(ctx context.Context, partnerID string, limit int) ([]models.Booking, error) {
	const query = `
		SELECT id, partner_id, client_name, event_type, starts_at, ends_at, amount_cents, status, created_at
		FROM bookings
		WHERE partner_id = $1
		ORDER BY starts_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, partnerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		if err := rows.Scan(
			&booking.ID,
			&booking.PartnerID,
			&booking.ClientName,
			&booking.EventType,
			&booking.StartsAt,
			&booking.EndsAt,
			&booking.AmountCents,
			&booking.Status,
			&booking.CreatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func (r *DashboardRepository) ListReviews(ctx context.Context, partnerID string, limit int) ([]models.Review, error) {
	const query = `
		SELECT id, partner_id, client_name, rating, comment, created_at
		FROM reviews
		WHERE partner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, partnerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(
			&review.ID,
			&review.PartnerID,
			&review.ClientName,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}
