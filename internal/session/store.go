package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shutterhub/api/internal/identity"
)

// Config fixes the store's timing knobs. Times default sensibly so tests
// can shorten them.
type Config struct {
	// TokenTTL is the lifetime of the mirrored authToken cookie.
	TokenTTL time.Duration
	// VerifyPollInterval is the period of the reload loop that runs while
	// the principal is signed in but not yet email-verified.
	VerifyPollInterval time.Duration
}

// Snapshot is the externally visible session state.
type Snapshot struct {
	Principal     *identity.Principal
	Loading       bool
	EmailVerified bool
}

// Store is the single source of truth for one principal's session. It
// subscribes to the provider's change notifications for its whole
// lifetime, keeps the cookie mirror in sync, and drives the unverified
// reload poll. Nothing else writes the mirrored cookies.
type Store struct {
	provider identity.Provider
	mirror   Mirror
	cfg      Config
	log      zerolog.Logger

	mu        sync.Mutex
	principal *identity.Principal
	loading   bool
	stopPoll  context.CancelFunc

	cancel context.CancelFunc
	done   chan struct{}
}

func NewStore(provider identity.Provider, mirror Mirror, cfg Config, log zerolog.Logger) *Store {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.VerifyPollInterval <= 0 {
		cfg.VerifyPollInterval = 3 * time.Second
	}
	return &Store{
		provider: provider,
		mirror:   mirror,
		cfg:      cfg,
		log:      log,
		loading:  true,
		done:     make(chan struct{}),
	}
}

// Start consumes any snapshot the provider already published, so the first
// mirror write lands before Start returns, then keeps consuming in the
// background until Close.
func (s *Store) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	select {
	case p := <-s.provider.Notifications():
		s.apply(runCtx, p)
	default:
	}

	go s.run(runCtx)
}

func (s *Store) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-s.provider.Notifications():
			s.apply(ctx, p)
		}
	}
}

// apply replaces the current principal with the provider's snapshot and
// reconciles the mirror and the verification poll.
func (s *Store) apply(ctx context.Context, p *identity.Principal) {
	s.mu.Lock()
	s.principal = p
	s.loading = false
	s.mu.Unlock()

	if p == nil {
		s.mirror.ClearToken()
		s.stopVerifyPoll()
		return
	}

	s.remirror(ctx)

	if p.EmailVerified {
		s.stopVerifyPoll()
	} else {
		s.startVerifyPoll(ctx)
	}
}

// remirror force-refreshes the token and rewrites the cookie. Provider
// failures keep the previous mirrored value.
func (s *Store) remirror(ctx context.Context) {
	token, err := s.provider.Token(ctx, true)
	if err != nil {
		s.log.Error().Err(err).Msg("token refresh failed, keeping previous mirror state")
		return
	}
	s.mirror.SetToken(token, s.cfg.TokenTTL)
}

// Reload asks the provider for fresh claims. A false-to-true flip of the
// verified flag triggers the forced refresh-and-remirror path and ends the
// verification poll.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	wasVerified := s.principal != nil && s.principal.EmailVerified
	signedIn := s.principal != nil
	s.mu.Unlock()

	if !signedIn {
		return identity.ErrNotSignedIn
	}

	p, err := s.provider.Reload(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session reload failed, retaining previous state")
		return err
	}

	s.mu.Lock()
	s.principal = p
	s.loading = false
	s.mu.Unlock()

	if !wasVerified && p.EmailVerified {
		s.remirror(ctx)
		s.stopVerifyPoll()
	}
	return nil
}

// SignOut clears local state and the mirrored cookie unconditionally, then
// reports any provider-side failure. The session is unauthenticated when
// this returns no matter what the provider said.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.principal = nil
	s.loading = false
	s.mu.Unlock()

	s.stopVerifyPoll()
	s.mirror.ClearToken()

	if err := s.provider.SignOut(ctx); err != nil {
		s.log.Error().Err(err).Msg("provider sign-out failed after local cleanup")
		return err
	}
	return nil
}

func (s *Store) startVerifyPoll(ctx context.Context) {
	s.mu.Lock()
	if s.stopPoll != nil {
		s.mu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	s.stopPoll = cancel
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.cfg.VerifyPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				_ = s.Reload(pollCtx)
			}
		}
	}()
}

func (s *Store) stopVerifyPoll() {
	s.mu.Lock()
	cancel := s.stopPoll
	s.stopPoll = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Principal:     s.principal,
		Loading:       s.loading,
		EmailVerified: s.principal != nil && s.principal.EmailVerified,
	}
}

func (s *Store) Principal() *identity.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal
}

func (s *Store) Mirror() Mirror {
	return s.mirror
}

// Close tears the store down without touching provider state.
func (s *Store) Close() {
	s.stopVerifyPoll()
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-s.done
}
