package app

import (
	"context"
	"fmt"

	"contact-monitor/internal/domain/ports"
)

// State reads and overwrites the stored count outside of a check cycle.
type State struct {
	store  ports.CountStore
	logger ports.Logger
}

// NewState constructs a State over store.
func NewState(store ports.CountStore, logger ports.Logger) *State {
	return &State{store: store, logger: logger}
}

// Count returns the persisted count.
func (s *State) Count(ctx context.Context) (int, error) {
	return s.store.Load(ctx)
}

// SetCount overwrites the persisted count.
func (s *State) SetCount(ctx context.Context, count int) error {
	if count < 0 {
		return fmt.Errorf("count must be non-negative, got %d", count)
	}
	if err := s.store.Save(ctx, count); err != nil {
		return err
	}
	s.logger.Info(ctx, "stored count overwritten", "count", count)
	return nil
}

// History returns recent saved counts when the store keeps them.
func (s *State) History(ctx context.Context, limit int) ([]ports.CountRecord, bool, error) {
	h, ok := s.store.(ports.CountHistory)
	if !ok {
		return nil, false, nil
	}
	records, err := h.History(ctx, limit)
	return records, true, err
}
