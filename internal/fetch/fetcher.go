// Package fetch provides the uniform remote-data wrapper the dashboard
// views read through: one loading flag, one error string, and a cached
// result that survives failed refreshes.
package fetch

import (
	"context"
	"sync"
)

// Call is a zero-argument remote read.
type Call[T any] func(ctx context.Context) (T, error)

// State is a point-in-time view of a fetcher.
type State[T any] struct {
	Data    T
	HasData bool
	Err     string
	Loading bool
}

// Fetcher caches the result of a Call. Load is a no-op until a principal
// is present, so authenticated-only reads never fire pre-login. A failed
// load records the error and keeps the previous data intact.
type Fetcher[T any] struct {
	call         Call[T]
	hasPrincipal func() bool

	mu      sync.Mutex
	data    T
	hasData bool
	err     string
	loading bool
}

// New builds a fetcher. hasPrincipal may be nil when the call needs no
// authentication.
func New[T any](hasPrincipal func() bool, call Call[T]) *Fetcher[T] {
	return &Fetcher[T]{call: call, hasPrincipal: hasPrincipal}
}

// Load runs the call once. The loading flag is cleared on success and
// failure alike.
func (f *Fetcher[T]) Load(ctx context.Context) {
	if f.hasPrincipal != nil && !f.hasPrincipal() {
		return
	}

	f.mu.Lock()
	f.loading = true
	f.err = ""
	f.mu.Unlock()

	data, err := f.call(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		f.err = err.Error()
		return
	}
	f.data = data
	f.hasData = true
}

// Refetch re-runs the call with identical semantics to the initial Load.
func (f *Fetcher[T]) Refetch(ctx context.Context) {
	f.Load(ctx)
}

func (f *Fetcher[T]) Snapshot() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State[T]{
		Data:    f.data,
		HasData: f.hasData,
		Err:     f.err,
		Loading: f.loading,
	}
}
