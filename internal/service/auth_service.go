package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"shutterhub/api/internal/config"
	"shutterhub/api/internal/identity"
	"shutterhub/api/internal/ids"
	"shutterhub/api/internal/models"
	"shutterhub/api/internal/repository"
	"shutterhub/api/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoActiveSession    = errors.New("no active session")
)

// AuthService runs the partner sign-in flows. Each successful sign-in gets
// its own identity client, cookie mirror, and session store; the manager
// owns them from then on.
type AuthService struct {
	partners  *repository.PartnerRepository
	sessions  *session.Manager
	cfg       *config.AppConfig
	log       zerolog.Logger
	newClient func() *identity.Client
}

func NewAuthService(
	partners *repository.PartnerRepository,
	sessions *session.Manager,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		partners: partners,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		newClient: func() *identity.Client {
			return identity.NewClient(cfg.Identity, log)
		},
	}
}

type LoginResult struct {
	Partner models.Partner
	Session session.Snapshot
	Mirror  session.Mirror
}

func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	client := s.newClient()
	principal, err := client.SignIn(ctx, email, password)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("partner sign-in rejected")
		return LoginResult{}, ErrInvalidCredentials
	}

	partner, err := s.partners.FindBySubject(ctx, principal.Subject)
	if errors.Is(err, repository.ErrPartnerNotFound) {
		// Provider account without a local row: heal it so dashboards work.
		partner = models.Partner{
			ID:      ids.New(),
			Subject: principal.Subject,
			Email:   principal.Email,
			Status:  models.PartnerStatusActive,
		}
		err = s.partners.Create(ctx, partner)
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("load partner: %w", err)
	}

	store := s.attach(principal.Subject, client)
	return LoginResult{
		Partner: partner,
		Session: store.Snapshot(),
		Mirror:  store.Mirror(),
	}, nil
}

type SignupInput struct {
	Email       string
	Password    string
	DisplayName string
	Phone       string
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (LoginResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, fmt.Errorf("email and password required")
	}

	client := s.newClient()
	principal, err := client.SignUp(ctx, input.Email, input.Password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("create account: %w", err)
	}

	partner := models.Partner{
		ID:          ids.New(),
		Subject:     principal.Subject,
		Email:       principal.Email,
		DisplayName: input.DisplayName,
		Phone:       input.Phone,
		Status:      models.PartnerStatusActive,
	}
	if err := s.partners.Create(ctx, partner); err != nil {
		if signOutErr := client.SignOut(ctx); signOutErr != nil {
			s.log.Warn().Err(signOutErr).Msg("rollback sign-out failed")
		}
		return LoginResult{}, fmt.Errorf("create partner: %w", err)
	}

	store := s.attach(principal.Subject, client)
	return LoginResult{
		Partner: partner,
		Session: store.Snapshot(),
		Mirror:  store.Mirror(),
	}, nil
}

func (s *AuthService) attach(subject string, client *identity.Client) *session.Store {
	mirror := session.NewCookieMirror(s.cfg.Security.CookieDomain, s.cfg.Security.CookieSecure)
	store := session.NewStore(client, mirror, session.Config{
		TokenTTL:           s.cfg.Security.TokenCookieTTL,
		VerifyPollInterval: s.cfg.Identity.VerifyPollInterval,
	}, s.log)
	s.sessions.Add(subject, store)
	return store
}

func (s *AuthService) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	return s.newClient().SendPasswordReset(ctx, email)
}

// Logout signs the subject's session out. The caller clears cookies on its
// own response regardless of the returned error.
func (s *AuthService) Logout(ctx context.Context, subject string) error {
	return s.sessions.SignOut(ctx, subject)
}

// CurrentSession reloads the live session (observing e.g. a just-completed
// email verification) and returns its store. Reload failures keep prior
// state and are not fatal to the caller.
func (s *AuthService) CurrentSession(ctx context.Context, subject string) (*session.Store, error) {
	store := s.sessions.Get(subject)
	if store == nil {
		return nil, ErrNoActiveSession
	}
	if err := store.Reload(ctx); err != nil {
		s.log.Debug().Err(err).Str("subject", subject).Msg("session reload failed")
	}
	return store, nil
}
