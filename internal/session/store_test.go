package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"shutterhub/api/internal/identity"
)

type fakeProvider struct {
	mu     sync.Mutex
	notify chan *identity.Principal

	tokenCalls   []bool // force flag per call
	tokenErr     error
	reloadQueue  []*identity.Principal
	reloadCalls  int
	reloadErr    error
	signOutErr   error
	signOutCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{notify: make(chan *identity.Principal, 1)}
}

func (f *fakeProvider) publish(p *identity.Principal) {
	select {
	case <-f.notify:
	default:
	}
	f.notify <- p
}

func (f *fakeProvider) Notifications() <-chan *identity.Principal { return f.notify }

func (f *fakeProvider) Token(_ context.Context, force bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	f.tokenCalls = append(f.tokenCalls, force)
	return fmt.Sprintf("tok-%d", len(f.tokenCalls)), nil
}

func (f *fakeProvider) Reload(context.Context) (*identity.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloadCalls++
	if f.reloadErr != nil {
		return nil, f.reloadErr
	}
	if len(f.reloadQueue) == 0 {
		return nil, errors.New("reload queue empty")
	}
	p := f.reloadQueue[0]
	if len(f.reloadQueue) > 1 {
		f.reloadQueue = f.reloadQueue[1:]
	}
	return p, nil
}

func (f *fakeProvider) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	return f.signOutErr
}

func (f *fakeProvider) tokenForces() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.tokenCalls...)
}

func (f *fakeProvider) reloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloadCalls
}

type fakeMirror struct {
	mu     sync.Mutex
	tokens []string
	clears int
}

func (m *fakeMirror) SetToken(value string, _ time.Duration) {
	m.mu.Lock()
	m.tokens = append(m.tokens, value)
	m.mu.Unlock()
}

func (m *fakeMirror) ClearToken() {
	m.mu.Lock()
	m.clears++
	m.mu.Unlock()
}

func (m *fakeMirror) SetAdmin(time.Duration)    {}
func (m *fakeMirror) ClearAdmin()               {}
func (m *fakeMirror) Apply(http.ResponseWriter) {}

func (m *fakeMirror) setTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokens...)
}

func (m *fakeMirror) clearCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}

func verifiedPrincipal(subject string) *identity.Principal {
	return &identity.Principal{Subject: subject, Email: subject + "@example.com", EmailVerified: true}
}

func unverifiedPrincipal(subject string) *identity.Principal {
	return &identity.Principal{Subject: subject, Email: subject + "@example.com"}
}

func newTestStore(t *testing.T, provider *fakeProvider, mirror *fakeMirror, poll time.Duration) *Store {
	t.Helper()
	st := NewStore(provider, mirror, Config{
		TokenTTL:           24 * time.Hour,
		VerifyPollInterval: poll,
	}, zerolog.Nop())
	t.Cleanup(st.Close)
	return st
}

func TestStartMirrorsPendingSignIn(t *testing.T) {
	provider := newFakeProvider()
	mirror := &fakeMirror{}
	provider.publish(verifiedPrincipal("p1"))

	st := newTestStore(t, provider, mirror, time.Hour)
	st.Start(context.Background())

	// The pre-published snapshot is consumed synchronously.
	require.Equal(t, []string{"tok-1"}, mirror.setTokens())
	require.Equal(t, []bool{true}, provider.tokenForces(), "mirror refresh must be forced")

	snap := st.Snapshot()
	require.False(t, snap.Loading)
	require.NotNil(t, snap.Principal)
	require.Equal(t, "p1", snap.Principal.Subject)
}

func TestSignedOutNotificationClearsMirror(t *testing.T) {
	provider := newFakeProvider()
	mirror := &fakeMirror{}
	provider.publish(verifiedPrincipal("p1"))

	st := newTestStore(t, provider, mirror, time.Hour)
	st.Start(context.Background())

	provider.publish(nil)
	require.Eventually(t, func() bool {
		return mirror.clearCount() == 1 && st.Principal() == nil
	}, time.Second, 5*time.Millisecond)
}

func TestSignOutClearsStateEvenWhenProviderFails(t *testing.T) {
	provider := newFakeProvider()
	mirror := &fakeMirror{}
	provider.publish(verifiedPrincipal("p1"))
	provider.signOutErr = errors.New("provider unreachable")

	st := newTestStore(t, provider, mirror, time.Hour)
	st.Start(context.Background())

	err := st.SignOut(context.Background())
	require.Error(t, err)

	// Local cleanup happened regardless of the provider error.
	require.Nil(t, st.Principal())
	require.Equal(t, 1, mirror.clearCount())
	require.False(t, st.Snapshot().Loading)
}

func TestVerificationPollRefreshesAndStops(t *testing.T) {
	provider := newFakeProvider()
	mirror := &fakeMirror{}
	provider.publish(unverifiedPrincipal("p1"))
	provider.reloadQueue = []*identity.Principal{
		unverifiedPrincipal("p1"),
		verifiedPrincipal("p1"),
	}

	st := newTestStore(t, provider, mirror, 10*time.Millisecond)
	st.Start(context.Background())

	// Poll runs until the verified flag flips, then the token is
	// force-refreshed and remirrored.
	require.Eventually(t, func() bool {
		return len(mirror.setTokens()) >= 2 && st.Snapshot().EmailVerified
	}, time.Second, 5*time.Millisecond)

	forces := provider.tokenForces()
	require.GreaterOrEqual(t, len(forces), 2)
	for _, force := range forces {
		require.True(t, force)
	}

	// The interval is cancelled once verified: reload count settles.
	settled := provider.reloadCount()
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, settled, provider.reloadCount())
}

func TestReloadFailureRetainsState(t *testing.T) {
	provider := newFakeProvider()
	mirror := &fakeMirror{}
	provider.publish(verifiedPrincipal("p1"))

	st := newTestStore(t, provider, mirror, time.Hour)
	st.Start(context.Background())

	provider.reloadErr = errors.New("lookup failed")
	err := st.Reload(context.Background())
	require.Error(t, err)

	// Previous known state survives the failed reload.
	p := st.Principal()
	require.NotNil(t, p)
	require.Equal(t, "p1", p.Subject)
	require.True(t, p.EmailVerified)
}

func TestReloadWhileSignedOut(t *testing.T) {
	provider := newFakeProvider()
	mirror := &fakeMirror{}

	st := newTestStore(t, provider, mirror, time.Hour)
	st.Start(context.Background())

	err := st.Reload(context.Background())
	require.ErrorIs(t, err, identity.ErrNotSignedIn)
}
