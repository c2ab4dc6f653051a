package onboarding

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"shutterhub/api/internal/models"
)

type scriptedSource struct {
	mu       sync.Mutex
	statuses []models.OnboardingStatus
	calls    int
}

func (s *scriptedSource) Status(context.Context, string) (models.OnboardingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.statuses[len(s.statuses)-1]
	if s.calls < len(s.statuses) {
		status = s.statuses[s.calls]
	}
	s.calls++
	return models.OnboardingRecord{Status: status}, nil
}

func TestWatcherReturnsImmediatelyWhenAlreadyResolved(t *testing.T) {
	source := &scriptedSource{statuses: []models.OnboardingStatus{models.OnboardingStatusVerified}}
	w := NewWatcher(source, time.Hour, zerolog.Nop())

	outcome, err := w.Wait(context.Background(), "partner-1")
	require.NoError(t, err)
	require.Equal(t, OutcomeVerified, outcome)
}

func TestWatcherPollsUntilStatusLeavesPending(t *testing.T) {
	source := &scriptedSource{statuses: []models.OnboardingStatus{
		models.OnboardingStatusPendingVerification,
		models.OnboardingStatusPendingVerification,
		models.OnboardingStatusIncomplete,
	}}
	w := NewWatcher(source, 5*time.Millisecond, zerolog.Nop())

	outcome, err := w.Wait(context.Background(), "partner-1")
	require.NoError(t, err)
	require.Equal(t, OutcomeIncomplete, outcome)
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	source := &scriptedSource{statuses: []models.OnboardingStatus{
		models.OnboardingStatusPendingVerification,
	}}
	w := NewWatcher(source, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := w.Wait(ctx, "partner-1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWatcherReportsRejection(t *testing.T) {
	source := &scriptedSource{statuses: []models.OnboardingStatus{
		models.OnboardingStatusPendingVerification,
		models.OnboardingStatusRejected,
	}}
	w := NewWatcher(source, 5*time.Millisecond, zerolog.Nop())

	outcome, err := w.Wait(context.Background(), "partner-1")
	require.NoError(t, err)
	require.Equal(t, OutcomeRejected, outcome)
}
