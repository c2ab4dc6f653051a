package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shutterhub/api/internal/models"
)

var ErrPartnerNotFound = errors.New("partner not found")

type PartnerRepository struct {
	pool *pgxpool.Pool
}

func NewPartnerRepository(pool *pgxpool.Pool) *PartnerRepository {
	return &PartnerRepository{pool: pool}
}

func (r *PartnerRepository) Create(ctx context.Context, partner models.Partner) error {
	const query = `
		INSERT INTO partners (
			id, subject, email, display_name, phone, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		partner.ID,
		partner.Subject,
		partner.Email,
		partner.DisplayName,
		partner.Phone,
		partner.Status,
	)
	return err
}

func (r *PartnerRepository) FindBySubject(ctx context.Context, subject string) (models.Partner, error) {
	const query = `
		SELECT id, subject, email, display_name, phone, status, created_at, updated_at
		FROM partners WHERE subject = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, subject))
}

func (r *PartnerRepository) GetByID(ctx context.Context, id string) (models.Partner, error) {
	const query = `
		SELECT id, subject, email, display_name, phone, status, created_at, updated_at
		FROM partners WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *PartnerRepository) scanOne(row pgx.Row) (models.Partner, error) {
	var partner models.Partner
	if err := row.Scan(
		&partner.ID,
		&partner.Subject,
		&partner.Email,
		&partner.DisplayName,
		&partner.Phone,
		&partner.Status,
		&partner.CreatedAt,
		&partner.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Partner{}, ErrPartnerNotFound
		}
		return models.Partner{}, err
	}
	return partner, nil
}

func (r *PartnerRepository) UpdateProfile(ctx context.Context, id string, displayName string, phone string) error {
	const query = `
		UPDATE partners SET display_name = $2, phone = $3, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, displayName, phone)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPartnerNotFound
	}
	return nil
}

// ListByOnboardingStatus backs the admin console's review queue. Partners
// without an onboarding record rank as incomplete.
func (r *PartnerRepository) ListByOnboardingStatus(ctx context.Context, status models.OnboardingStatus, limit, offset int) ([]models.Partner, error) {
	const query = `
		SELECT p.id, p.subject, p.email, p.display_name, p.phone, p.status, p.created_at, p.updated_at
		FROM partners p
		JOIN partner_onboarding o ON o.partner_id = p.id
		WHERE o.status = $1
		ORDER BY o.updated_at ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partners []models.Partner
	for rows.Next() {
		var partner models.Partner
		if err := rows.Scan(
			&partner.ID,
			&partner.Subject,
			&partner.Email,
			&partner.DisplayName,
			&partner.Phone,
			&partner.Status,
			&partner.CreatedAt,
			&partner.UpdatedAt,
		); err != nil {
			return nil, err
		}
		partners = append(partners, partner)
	}
	return partners, rows.Err()
}
