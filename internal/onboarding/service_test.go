package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"shutterhub/api/internal/models"
	"shutterhub/api/internal/repository"
)

// memoryStore mirrors the repository's forward-only semantics and lets
// tests inject a failure for the next mutation.
type memoryStore struct {
	mu      sync.Mutex
	records map[string]models.OnboardingRecord
	failErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]models.OnboardingRecord)}
}

func (m *memoryStore) failNext(err error) {
	m.mu.Lock()
	m.failErr = err
	m.mu.Unlock()
}

func (m *memoryStore) takeFailure() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.failErr
	m.failErr = nil
	return err
}

func (m *memoryStore) Get(_ context.Context, partnerID string) (models.OnboardingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[partnerID]
	if !ok {
		return models.OnboardingRecord{}, repository.ErrOnboardingNotFound
	}
	return record, nil
}

func (m *memoryStore) SaveBasicInfo(_ context.Context, partnerID string, info models.BasicInfo, step, progress int) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[partnerID]
	if !ok {
		record = models.NewOnboardingRecord(partnerID)
	}
	record.BasicInfo = info
	record.Step = max(record.Step, step)
	record.Progress = max(record.Progress, progress)
	m.records[partnerID] = record
	return nil
}

func (m *memoryStore) AddService(_ context.Context, partnerID string, svc models.PartnerService) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[partnerID]
	if !ok {
		return repository.ErrOnboardingNotFound
	}
	record.Services = append(record.Services, svc)
	m.records[partnerID] = record
	return nil
}

func (m *memoryStore) SetLocations(_ context.Context, partnerID string, locations []string, step, progress int) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[partnerID]
	if !ok {
		return repository.ErrOnboardingNotFound
	}
	record.Locations = locations
	record.Step = max(record.Step, step)
	record.Progress = max(record.Progress, progress)
	m.records[partnerID] = record
	return nil
}

func (m *memoryStore) AddPortfolio(_ context.Context, partnerID string, urls []string, step, progress int) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[partnerID]
	if !ok {
		return repository.ErrOnboardingNotFound
	}
	record.PortfolioURLs = append(record.PortfolioURLs, urls...)
	record.Step = max(record.Step, step)
	record.Progress = max(record.Progress, progress)
	m.records[partnerID] = record
	return nil
}

func (m *memoryStore) AddDocuments(_ context.Context, partnerID string, docs []models.Document) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[partnerID]
	if !ok {
		return repository.ErrOnboardingNotFound
	}
	record.Documents = append(record.Documents, docs...)
	m.records[partnerID] = record
	return nil
}

func (m *memoryStore) Complete(_ context.Context, partnerID string) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[partnerID]
	if !ok {
		return repository.ErrOnboardingNotFound
	}
	record.Status = models.OnboardingStatusPendingVerification
	record.Progress = 100
	m.records[partnerID] = record
	return nil
}

func (m *memoryStore) SetStatus(_ context.Context, partnerID string, status models.OnboardingStatus) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[partnerID]
	if !ok {
		return repository.ErrOnboardingNotFound
	}
	record.Status = status
	m.records[partnerID] = record
	return nil
}

func newTestService(store Store) *Service {
	return NewService(store, nil, nil, "onboarding:events", zerolog.Nop())
}

func TestStatusDefaultsWhenNoRecord(t *testing.T) {
	svc := newTestService(newMemoryStore())

	record, err := svc.Status(context.Background(), "partner-1")
	require.NoError(t, err)
	require.Equal(t, models.StepBasicInfo, record.Step)
	require.Equal(t, 0, record.Progress)
	require.Equal(t, models.OnboardingStatusIncomplete, record.Status)
}

func TestSubmitBasicInfoAdvancesToServices(t *testing.T) {
	svc := newTestService(newMemoryStore())

	record, err := svc.SubmitBasicInfo(context.Background(), "partner-1", models.BasicInfo{
		BusinessName: "Golden Hour Studio",
		Bio:          "Weddings and portraits",
	})
	require.NoError(t, err)
	require.Equal(t, models.StepServices, record.Step)
	require.Equal(t, progressBasicInfo, record.Progress)
	require.Equal(t, "Golden Hour Studio", record.BasicInfo.BusinessName)
}

func TestFailedBasicInfoLeavesRecordUntouched(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	before, err := svc.SubmitBasicInfo(ctx, "partner-1", models.BasicInfo{BusinessName: "Original"})
	require.NoError(t, err)

	store.failNext(errors.New("connection reset"))
	_, err = svc.SubmitBasicInfo(ctx, "partner-1", models.BasicInfo{BusinessName: "Changed"})
	require.Error(t, err)

	after, err := svc.Status(ctx, "partner-1")
	require.NoError(t, err)
	require.Equal(t, before.Step, after.Step)
	require.Equal(t, before.Progress, after.Progress)
	require.Equal(t, "Original", after.BasicInfo.BusinessName)
}

func TestAddServiceKeepsStepAndRefetches(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.SubmitBasicInfo(ctx, "partner-1", models.BasicInfo{BusinessName: "Studio"})
	require.NoError(t, err)

	record, err := svc.AddService(ctx, "partner-1", models.PartnerService{Name: "Wedding", PriceCents: 150000})
	require.NoError(t, err)
	require.Equal(t, models.StepServices, record.Step, "adding a service stays on the services section")
	require.Len(t, record.Services, 1)
	require.NotEmpty(t, record.Services[0].ID)
}

func TestAddServiceWithoutRecordSurfacesError(t *testing.T) {
	svc := newTestService(newMemoryStore())

	_, err := svc.AddService(context.Background(), "partner-1", models.PartnerService{Name: "Portrait"})
	require.ErrorIs(t, err, repository.ErrOnboardingNotFound)
}

func TestLocationsAndPortfolioAdvance(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.SubmitBasicInfo(ctx, "partner-1", models.BasicInfo{BusinessName: "Studio"})
	require.NoError(t, err)

	record, err := svc.SetLocations(ctx, "partner-1", []string{"Lisbon", "Porto"})
	require.NoError(t, err)
	require.Equal(t, models.StepPortfolio, record.Step)
	require.Equal(t, progressLocations, record.Progress)

	record, err = svc.AddPortfolio(ctx, "partner-1", []string{"https://cdn.example.com/a.jpg"})
	require.NoError(t, err)
	require.Equal(t, models.StepDocuments, record.Step)
	require.Equal(t, progressPortfolio, record.Progress)

	// Documents never force an advance, and the service mints their IDs.
	record, err = svc.AddDocuments(ctx, "partner-1", []models.Document{{Name: "license.pdf", URL: "https://cdn.example.com/license.pdf"}})
	require.NoError(t, err)
	require.Equal(t, models.StepDocuments, record.Step)
	require.Equal(t, progressPortfolio, record.Progress)
	require.Len(t, record.Documents, 1)
	require.NotEmpty(t, record.Documents[0].ID)
}

func TestCompleteForcesPendingAndFullProgress(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.SubmitBasicInfo(ctx, "partner-1", models.BasicInfo{BusinessName: "Studio"})
	require.NoError(t, err)

	record, err := svc.Complete(ctx, "partner-1")
	require.NoError(t, err)
	require.Equal(t, models.OnboardingStatusPendingVerification, record.Status)
	require.Equal(t, 100, record.Progress)
}

func TestCompleteRefusedAfterVerdict(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.SubmitBasicInfo(ctx, "partner-1", models.BasicInfo{BusinessName: "Studio"})
	require.NoError(t, err)
	_, err = svc.Complete(ctx, "partner-1")
	require.NoError(t, err)
	_, err = svc.Review(ctx, "partner-1", models.OnboardingStatusVerified)
	require.NoError(t, err)

	// A decided record never drops back to pending_verification.
	_, err = svc.Complete(ctx, "partner-1")
	require.ErrorIs(t, err, ErrAlreadyDecided)

	record, err := svc.Status(ctx, "partner-1")
	require.NoError(t, err)
	require.Equal(t, models.OnboardingStatusVerified, record.Status)
	require.Equal(t, 100, record.Progress)
}

func TestReviewRequiresPendingStatus(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.SubmitBasicInfo(ctx, "partner-1", models.BasicInfo{BusinessName: "Studio"})
	require.NoError(t, err)

	_, err = svc.Review(ctx, "partner-1", models.OnboardingStatusVerified)
	require.ErrorIs(t, err, ErrNotPending)

	_, err = svc.Complete(ctx, "partner-1")
	require.NoError(t, err)

	record, err := svc.Review(ctx, "partner-1", models.OnboardingStatusVerified)
	require.NoError(t, err)
	require.Equal(t, models.OnboardingStatusVerified, record.Status)
}
