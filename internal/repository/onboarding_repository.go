package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shutterhub/api/internal/models"
)

var ErrOnboardingNotFound = errors.New("onboarding record not found")

// OnboardingRepository persists the onboarding record and its child
// collections. Step and progress only ever move forward here (GREATEST),
// matching the state machine's no-backward rule; status changes are the
// one exception and go through SetStatus.
type OnboardingRepository struct {
	pool *pgxpool.Pool
}

func NewOnboardingRepository(pool *pgxpool.Pool) *OnboardingRepository {
	return &OnboardingRepository{pool: pool}
}

func (r *OnboardingRepository) Get(ctx context.Context, partnerID string) (models.OnboardingRecord, error) {
	const query = `
		SELECT partner_id, step, progress, status,
		       business_name, bio, experience_years, phone,
		       locations, portfolio_urls, created_at, updated_at
		FROM partner_onboarding
		WHERE partner_id = $1
	`

	row := r.pool.QueryRow(ctx, query, partnerID)
	var record models.OnboardingRecord
	if err := row.Scan(
		&record.PartnerID,
		&record.Step,
		&record.Progress,
		&record.Status,
		&record.BasicInfo.BusinessName,
		&record.BasicInfo.Bio,
		&record.BasicInfo.ExperienceYears,
		&record.BasicInfo.Phone,
		&record.Locations,
		&record.PortfolioURLs,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.OnboardingRecord{}, ErrOnboardingNotFound
		}
		return models.OnboardingRecord{}, err
	}

	services, err := r.listServices(ctx, partnerID)
	if err != nil {
		return models.OnboardingRecord{}, err
	}
	record.Services = services

	documents, err := r.listDocuments(ctx, partnerID)
	if err != nil {
		return models.OnboardingRecord{}, err
	}
	record.Documents = documents

	return record, nil
}

func (r *OnboardingRepository) listServices(ctx context.Context, partnerID string) ([]models.PartnerService, error) {
	const query = `
		SELECT id, name, category, price_cents
		FROM partner_services
		WHERE partner_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, partnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []models.PartnerService
	for rows.Next() {
		var svc models.PartnerService
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Category, &svc.PriceCents); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func (r *OnboardingRepository) listDocuments(ctx context.Context, partnerID string) ([]models.Document, error) {
	const query = `
		SELECT id, name, url
		FROM partner_documents
		WHERE partner_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, partnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.URL); err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}
	return documents, rows.Err()
}

func (r *OnboardingRepository) SaveBasicInfo(ctx context.Context, partnerID string, info models.BasicInfo, step, progress int) error {
	const query = `
		INSERT INTO partner_onboarding (
			partner_id, step, progress, status,
			business_name, bio, experience_years, phone,
			locations, portfolio_urls, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, '{}', '{}', NOW(), NOW()
		)
		ON CONFLICT (partner_id)
		DO UPDATE SET
			business_name = EXCLUDED.business_name,
			bio = EXCLUDED.bio,
			experience_years = EXCLUDED.experience_years,
			phone = EXCLUDED.phone,
			step = GREATEST(partner_onboarding.step, EXCLUDED.step),
			progress = GREATEST(partner_onboarding.progress, EXCLUDED.progress),
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		partnerID,
		step,
		progress,
		models.OnboardingStatusIncomplete,
		info.BusinessName,
		info.Bio,
		info.ExperienceYears,
		info.Phone,
	)
	return err
}

// AddService inserts the service and touches the record in one
// transaction; the record must already exist.
func (r *OnboardingRepository) AddService(ctx context.Context, partnerID string, svc models.PartnerService) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := touchRecord(ctx, tx, partnerID); err != nil {
		return err
	}

	const insert = `
		INSERT INTO partner_services (id, partner_id, name, category, price_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	if _, err := tx.Exec(ctx, insert, svc.ID, partnerID, svc.Name, svc.Category, svc.PriceCents); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *OnboardingRepository) SetLocations(ctx context.Context, partnerID string, locations []string, step, progress int) error {
	const query = `
		UPDATE partner_onboarding
		SET locations = $2,
		    step = GREATEST(step, $3),
		    progress = GREATEST(progress, $4),
		    updated_at = NOW()
		WHERE partner_id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, partnerID, locations, step, progress)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOnboardingNotFound
	}
	return nil
}

func (r *OnboardingRepository) AddPortfolio(ctx context.Context, partnerID string, urls []string, step, progress int) error {
	const query = `
		UPDATE partner_onboarding
		SET portfolio_urls = portfolio_urls || $2,
		    step = GREATEST(step, $3),
		    progress = GREATEST(progress, $4),
		    updated_at = NOW()
		WHERE partner_id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, partnerID, urls, step, progress)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOnboardingNotFound
	}
	return nil
}

func (r *OnboardingRepository) AddDocuments(ctx context.Context, partnerID string, docs []models.Document) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := touchRecord(ctx, tx, partnerID); err != nil {
		return err
	}

	const insert = `
		INSERT INTO partner_documents (id, partner_id, name, url, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	for _, doc := range docs {
		if _, err := tx.Exec(ctx, insert, doc.ID, partnerID, doc.Name, doc.URL); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *OnboardingRepository) Complete(ctx context.Context, partnerID string) error {
	const query = `
		UPDATE partner_onboarding
		SET status = $2, progress = 100, updated_at = NOW()
		WHERE partner_id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, partnerID, models.OnboardingStatusPendingVerification)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOnboardingNotFound
	}
	return nil
}

// SetStatus applies an admin review verdict. Step and progress are left
// alone so a partner sent back to incomplete resumes where they were.
func (r *OnboardingRepository) SetStatus(ctx context.Context, partnerID string, status models.OnboardingStatus) error {
	const query = `
		UPDATE partner_onboarding
		SET status = $2, updated_at = NOW()
		WHERE partner_id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, partnerID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOnboardingNotFound
	}
	return nil
}

// ListPendingOlderThan returns partners whose verification has been
// waiting longer than age. Used by the reminder job.
func (r *OnboardingRepository) ListPendingOlderThan(ctx context.Context, age time.Duration) ([]string, error) {
	const query = `
		SELECT partner_id
		FROM partner_onboarding
		WHERE status = $1 AND updated_at < NOW() - $2::interval
		ORDER BY updated_at ASC
	`

	rows, err := r.pool.Query(ctx, query, models.OnboardingStatusPendingVerification, age.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partnerIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		partnerIDs = append(partnerIDs, id)
	}
	return partnerIDs, rows.Err()
}

func touchRecord(ctx context.Context, tx pgx.Tx, partnerID string) error {
	const query = `
		UPDATE partner_onboarding SET updated_at = NOW() WHERE partner_id = $1
	`
	cmd, err := tx.Exec(ctx, query, partnerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOnboardingNotFound
	}
	return nil
}
