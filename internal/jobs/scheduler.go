package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"shutterhub/api/internal/config"
	"shutterhub/api/internal/repository"
	"shutterhub/api/internal/session"
)

type Scheduler struct {
	cron       *cron.Cron
	queue      *redis.Client
	sessions   *session.Manager
	onboarding *repository.OnboardingRepository
	cfg        *config.AppConfig
	log        zerolog.Logger
}

func NewScheduler(
	queue *redis.Client,
	sessions *session.Manager,
	onboarding *repository.OnboardingRepository,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:       c,
		queue:      queue,
		sessions:   sessions,
		onboarding: onboarding,
		cfg:        cfg,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.sweepSessions); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.remindPending); err != nil { // hourly recheck
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for in-flight jobs, but not past the shutdown budget.
func (s *Scheduler) Stop() {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("cron jobs still running at shutdown")
	}
}

// sweepSessions drops session stores whose tokens expired long enough ago
// that no client will come back for them.
func (s *Scheduler) sweepSessions() {
	s.sessions.SweepExpired(s.cfg.Security.TokenCookieTTL)
}

// remindPending nudges partners whose submission has sat in
// pending_verification past the reminder age. The nudge is an event on the
// onboarding stream; the notification worker owns delivery.
func (s *Scheduler) remindPending() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	partnerIDs, err := s.onboarding.ListPendingOlderThan(ctx, s.cfg.Onboarding.ReminderAge)
	if err != nil {
		s.log.Error().Err(err).Msg("list stale pending submissions failed")
		return
	}

	for _, id := range partnerIDs {
		if err := s.queue.XAdd(ctx, &redis.XAddArgs{
			Stream: s.cfg.Onboarding.EventStream,
			Values: map[string]any{
				"event":      "verification_reminder",
				"partner_id": id,
			},
		}).Err(); err != nil {
			s.log.Error().Err(err).Str("partner_id", id).Msg("enqueue reminder failed")
		}
	}
}
