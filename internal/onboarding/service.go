package onboarding

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"shutterhub/api/internal/ids"
	"shutterhub/api/internal/models"
	"shutterhub/api/internal/repository"
)

var (
	ErrNotPending     = errors.New("onboarding is not pending verification")
	ErrAlreadyDecided = errors.New("onboarding verdict already decided")
)

// Progress marks granted by each completed section. Documents never move
// progress on their own; completion forces 100.
const (
	progressBasicInfo = 20
	progressLocations = 60
	progressPortfolio = 80
)

// Store is the persistence the service needs; the pgx repository
// implements it, tests use a memory fake.
type Store interface {
	Get(ctx context.Context, partnerID string) (models.OnboardingRecord, error)
	SaveBasicInfo(ctx context.Context, partnerID string, info models.BasicInfo, step, progress int) error
	AddService(ctx context.Context, partnerID string, svc models.PartnerService) error
	SetLocations(ctx context.Context, partnerID string, locations []string, step, progress int) error
	AddPortfolio(ctx context.Context, partnerID string, urls []string, step, progress int) error
	AddDocuments(ctx context.Context, partnerID string, docs []models.Document) error
	Complete(ctx context.Context, partnerID string) error
	SetStatus(ctx context.Context, partnerID string, status models.OnboardingStatus) error
}

// StatusCache is a read-through cache over the record. Implementations
// must tolerate being nil-backed; a miss is never an error.
type StatusCache interface {
	Get(ctx context.Context, partnerID string) (models.OnboardingRecord, bool)
	Set(ctx context.Context, partnerID string, record models.OnboardingRecord)
	Invalidate(ctx context.Context, partnerID string)
}

// Service is the onboarding state machine. Every mutation runs against the
// store and then re-reads the authoritative record; the cached copy is
// replaced only after a successful mutation, so a failed call leaves both
// the database and the cache exactly as they were.
type Service struct {
	store  Store
	cache  StatusCache
	events *redis.Client
	stream string
	log    zerolog.Logger
}

func NewService(store Store, cache StatusCache, events *redis.Client, stream string, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		events: events,
		stream: stream,
		log:    log,
	}
}

// Status returns the partner's current record, serving the fresh default
// when nothing is persisted yet.
func (s *Service) Status(ctx context.Context, partnerID string) (models.OnboardingRecord, error) {
	if s.cache != nil {
		if record, ok := s.cache.Get(ctx, partnerID); ok {
			return record, nil
		}
	}

	record, err := s.store.Get(ctx, partnerID)
	if err != nil {
		if errors.Is(err, repository.ErrOnboardingNotFound) {
			return models.NewOnboardingRecord(partnerID), nil
		}
		return models.OnboardingRecord{}, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, partnerID, record)
	}
	return record, nil
}

// SubmitBasicInfo completes the first section and advances to services.
func (s *Service) SubmitBasicInfo(ctx context.Context, partnerID string, info models.BasicInfo) (models.OnboardingRecord, error) {
	err := s.store.SaveBasicInfo(ctx, partnerID, info, models.StepServices, progressBasicInfo)
	return s.reconcile(ctx, partnerID, err)
}

// AddService records one more offered service. The step does not advance;
// the services section reconciles a list, so the caller gets a full
// refetch instead.
func (s *Service) AddService(ctx context.Context, partnerID string, svc models.PartnerService) (models.OnboardingRecord, error) {
	svc.ID = ids.New()
	err := s.store.AddService(ctx, partnerID, svc)
	return s.reconcile(ctx, partnerID, err)
}

// SetLocations replaces the served locations and advances to portfolio.
func (s *Service) SetLocations(ctx context.Context, partnerID string, locations []string) (models.OnboardingRecord, error) {
	err := s.store.SetLocations(ctx, partnerID, locations, models.StepPortfolio, progressLocations)
	return s.reconcile(ctx, partnerID, err)
}

// AddPortfolio appends uploaded asset URLs and advances to documents.
func (s *Service) AddPortfolio(ctx context.Context, partnerID string, urls []string) (models.OnboardingRecord, error) {
	err := s.store.AddPortfolio(ctx, partnerID, urls, models.StepDocuments, progressPortfolio)
	return s.reconcile(ctx, partnerID, err)
}

// AddDocuments records uploaded documents without forcing a step advance;
// the final section may take several submissions.
func (s *Service) AddDocuments(ctx context.Context, partnerID string, docs []models.Document) (models.OnboardingRecord, error) {
	for i := range docs {
		docs[i].ID = ids.New()
	}
	err := s.store.AddDocuments(ctx, partnerID, docs)
	return s.reconcile(ctx, partnerID, err)
}

// Complete hands the record to verification: status pending_verification,
// progress forced to 100. A record an admin already decided stays decided;
// only Review moves it after that.
func (s *Service) Complete(ctx context.Context, partnerID string) (models.OnboardingRecord, error) {
	current, err := s.Status(ctx, partnerID)
	if err != nil {
		return models.OnboardingRecord{}, err
	}
	if current.Terminal() {
		return models.OnboardingRecord{}, ErrAlreadyDecided
	}

	record, err := s.reconcile(ctx, partnerID, s.store.Complete(ctx, partnerID))
	if err != nil {
		return models.OnboardingRecord{}, err
	}
	s.emit(ctx, partnerID, "completed", record.Status)
	return record, nil
}

// Review applies an admin verdict to a pending record.
func (s *Service) Review(ctx context.Context, partnerID string, status models.OnboardingStatus) (models.OnboardingRecord, error) {
	current, err := s.Status(ctx, partnerID)
	if err != nil {
		return models.OnboardingRecord{}, err
	}
	if current.Status != models.OnboardingStatusPendingVerification {
		return models.OnboardingRecord{}, ErrNotPending
	}

	record, err := s.reconcile(ctx, partnerID, s.store.SetStatus(ctx, partnerID, status))
	if err != nil {
		return models.OnboardingRecord{}, err
	}
	s.emit(ctx, partnerID, "reviewed", record.Status)
	return record, nil
}

// reconcile turns a mutation result into the authoritative record. On
// failure nothing is touched; on success the cache is replaced with the
// fresh read.
func (s *Service) reconcile(ctx context.Context, partnerID string, mutationErr error) (models.OnboardingRecord, error) {
	if mutationErr != nil {
		return models.OnboardingRecord{}, mutationErr
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, partnerID)
	}

	record, err := s.store.Get(ctx, partnerID)
	if err != nil {
		return models.OnboardingRecord{}, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, partnerID, record)
	}
	return record, nil
}

// emit publishes an onboarding event. Failures are logged, never fatal:
// the record is the source of truth, the stream is advisory.
func (s *Service) emit(ctx context.Context, partnerID, event string, status models.OnboardingStatus) {
	if s.events == nil {
		return
	}
	err := s.events.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"event":     event,
			"partnerId": partnerID,
			"status":    string(status),
			"at":        time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		s.log.Warn().Err(err).Str("partner_id", partnerID).Msg("emit onboarding event failed")
	}
}
