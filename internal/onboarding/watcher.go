package onboarding

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"shutterhub/api/internal/models"
)

// Outcome is the one-shot verdict of a verification wait.
type Outcome string

const (
	OutcomeVerified   Outcome = "verified"
	OutcomeIncomplete Outcome = "incomplete"
	OutcomeRejected   Outcome = "rejected"
)

// StatusSource is the slice of the service the watcher polls.
type StatusSource interface {
	Status(ctx context.Context, partnerID string) (models.OnboardingRecord, error)
}

// Watcher polls a pending record until its status leaves
// pending_verification. The transition is forward-only: the watcher
// reports what happened, it never mutates the record.
type Watcher struct {
	source   StatusSource
	interval time.Duration
	log      zerolog.Logger
}

func NewWatcher(source StatusSource, interval time.Duration, log zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{source: source, interval: interval, log: log}
}

// Wait blocks until the record's status leaves pending_verification or the
// context ends. The ticker is always released on return; transient read
// errors are logged and retried on the next tick.
func (w *Watcher) Wait(ctx context.Context, partnerID string) (Outcome, error) {
	if outcome, done := w.check(ctx, partnerID); done {
		return outcome, nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			if outcome, done := w.check(ctx, partnerID); done {
				return outcome, nil
			}
		}
	}
}

func (w *Watcher) check(ctx context.Context, partnerID string) (Outcome, bool) {
	record, err := w.source.Status(ctx, partnerID)
	if err != nil {
		w.log.Warn().Err(err).Str("partner_id", partnerID).Msg("verification status check failed")
		return "", false
	}

	switch record.Status {
	case models.OnboardingStatusVerified:
		return OutcomeVerified, true
	case models.OnboardingStatusIncomplete:
		return OutcomeIncomplete, true
	case models.OnboardingStatusRejected:
		return OutcomeRejected, true
	default:
		return "", false
	}
}
