package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Manager owns the live stores, one per signed-in subject. Stores are
// created at login, replaced on re-login, and closed on logout or
// shutdown.
type Manager struct {
	ctx context.Context
	log zerolog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

func NewManager(ctx context.Context, log zerolog.Logger) *Manager {
	return &Manager{
		ctx:    ctx,
		log:    log,
		stores: make(map[string]*Store),
	}
}

// Add starts the store and registers it under the subject. An existing
// store for the same subject is closed first; the new sign-in wins.
func (m *Manager) Add(subject string, st *Store) {
	m.mu.Lock()
	prev := m.stores[subject]
	m.stores[subject] = st
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	st.Start(m.ctx)
}

func (m *Manager) Get(subject string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stores[subject]
}

// SignOut runs the store's sign-out and removes it. Missing stores are not
// an error; the caller still clears cookies on its own response.
func (m *Manager) SignOut(ctx context.Context, subject string) error {
	m.mu.Lock()
	st := m.stores[subject]
	delete(m.stores, subject)
	m.mu.Unlock()

	if st == nil {
		return nil
	}
	err := st.SignOut(ctx)
	st.Close()
	return err
}

// SweepExpired drops stores whose principal's token expired more than the
// grace period ago. Run from the scheduler.
func (m *Manager) SweepExpired(grace time.Duration) int {
	now := time.Now()

	m.mu.Lock()
	var expired []*Store
	for subject, st := range m.stores {
		p := st.Principal()
		if p != nil && !p.ExpiresAt.IsZero() && now.Sub(p.ExpiresAt) > grace {
			expired = append(expired, st)
			delete(m.stores, subject)
		}
	}
	m.mu.Unlock()

	for _, st := range expired {
		st.Close()
	}
	if len(expired) > 0 {
		m.log.Info().Int("count", len(expired)).Msg("swept expired sessions")
	}
	return len(expired)
}

func (m *Manager) Shutdown() {
	m.mu.Lock()
	stores := make([]*Store, 0, len(m.stores))
	for _, st := range m.stores {
		stores = append(stores, st)
	}
	m.stores = make(map[string]*Store)
	m.mu.Unlock()

	for _, st := range stores {
		st.Close()
	}
}
