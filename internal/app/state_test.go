package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-monitor/internal/domain/ports"
)

type memStore struct {
	count   int
	saveErr error
}

func (s *memStore) Load(context.Context) (int, error) { return s.count, nil }

func (s *memStore) Save(_ context.Context, n int) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.count = n
	return nil
}

type historyStore struct{ memStore }

func (s *historyStore) History(context.Context, int) ([]ports.CountRecord, error) {
	return []ports.CountRecord{{Count: s.count}}, nil
}

func TestState_Count(t *testing.T) {
	ctx := context.Background()
	store := &memStore{count: 4}
	s := NewState(store, nopLogger{})

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, s.SetCount(ctx, 9))
	assert.Equal(t, 9, store.count)
	require.Error(t, s.SetCount(ctx, -1))
	assert.Equal(t, 9, store.count)

	store.saveErr = errors.New("disk full")
	require.Error(t, s.SetCount(ctx, 10))

	_, ok, err := s.History(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestState_HistoryWhenSupported(t *testing.T) {
	s := NewState(&historyStore{memStore{count: 3}}, nopLogger{})

	records, ok, err := s.History(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Count)
}
