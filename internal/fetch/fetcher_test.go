package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadIsNoOpWithoutPrincipal(t *testing.T) {
	calls := 0
	f := New(func() bool { return false }, func(context.Context) ([]string, error) {
		calls++
		return []string{"x"}, nil
	})

	f.Load(context.Background())

	require.Zero(t, calls)
	st := f.Snapshot()
	require.False(t, st.HasData)
	require.False(t, st.Loading)
}

func TestLoadReplacesDataOnSuccess(t *testing.T) {
	f := New(nil, func(context.Context) ([]string, error) {
		return []string{"lead-1", "lead-2"}, nil
	})

	f.Load(context.Background())

	st := f.Snapshot()
	require.True(t, st.HasData)
	require.Equal(t, []string{"lead-1", "lead-2"}, st.Data)
	require.Empty(t, st.Err)
	require.False(t, st.Loading)
}

func TestFailedLoadPreservesPriorData(t *testing.T) {
	fail := false
	f := New(nil, func(context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("upstream 502")
		}
		return []string{"booking-1"}, nil
	})

	ctx := context.Background()
	f.Load(ctx)

	fail = true
	f.Refetch(ctx)

	st := f.Snapshot()
	require.Equal(t, "upstream 502", st.Err)
	require.True(t, st.HasData, "prior data must survive a failed refetch")
	require.Equal(t, []string{"booking-1"}, st.Data)
	require.False(t, st.Loading, "loading clears on the failure path too")
}

func TestRefetchClearsPreviousError(t *testing.T) {
	fail := true
	f := New(nil, func(context.Context) (int, error) {
		if fail {
			return 0, errors.New("boom")
		}
		return 42, nil
	})

	ctx := context.Background()
	f.Load(ctx)
	require.NotEmpty(t, f.Snapshot().Err)

	fail = false
	f.Refetch(ctx)

	st := f.Snapshot()
	require.Empty(t, st.Err)
	require.Equal(t, 42, st.Data)
}
