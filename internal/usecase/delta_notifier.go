package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contact-monitor/internal/domain/model"
	"contact-monitor/internal/domain/ports"
)

// DeltaNotifier compares the observed message count against the stored one
// and notifies every configured channel about new messages.
type DeltaNotifier struct {
	fetcher  ports.Fetcher
	store    ports.CountStore
	channels []ports.Channel
	observer ports.CycleObserver
	logger   ports.Logger
	link     string
	required map[string]bool
}

// DeltaNotifierConfig controls optional behaviours for the notifier.
type DeltaNotifierConfig struct {
	// Link is attached to count-only payloads (usually the admin panel URL).
	Link string
	// Required names channels whose failure fails the cycle even when other
	// channels delivered.
	Required []string
}

// NewDeltaNotifier constructs a DeltaNotifier use case. Nil channels are dropped.
func NewDeltaNotifier(
	fetcher ports.Fetcher,
	store ports.CountStore,
	channels []ports.Channel,
	observer ports.CycleObserver,
	logger ports.Logger,
	cfg DeltaNotifierConfig,
) *DeltaNotifier {
	active := make([]ports.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch != nil {
			active = append(active, ch)
		}
	}
	required := make(map[string]bool, len(cfg.Required))
	for _, name := range cfg.Required {
		required[name] = true
	}
	return &DeltaNotifier{
		fetcher:  fetcher,
		store:    store,
		channels: active,
		observer: observer,
		logger:   logger,
		link:     cfg.Link,
		required: required,
	}
}

// Run executes one check cycle.
func (n *DeltaNotifier) Run(ctx context.Context) (result model.CycleResult, err error) {
	start := time.Now()
	defer func() {
		if n.observer != nil {
			n.observer.ObserveCycle(result, err)
		}
	}()

	n.logger.Info(ctx, "checking for new messages")

	snapshot, err := n.fetcher.Fetch(ctx)
	if err != nil {
		n.logger.Error(ctx, "failed to fetch messages", "error", err)
		return result, fmt.Errorf("%w: %w", model.ErrFetch, err)
	}

	result.Current = snapshot.Count
	result.Last = n.lastCount(ctx)
	result.Delta = result.Current - result.Last
	n.logger.Info(ctx, "message counts", "current", result.Current, "last", result.Last)

	if result.Delta <= 0 {
		if result.Delta < 0 {
			n.logger.Warn(ctx, "message count decreased upstream, resetting stored count",
				"current", result.Current, "last", result.Last)
		} else {
			n.logger.Info(ctx, "no new messages")
		}
		result.Persisted = n.persist(ctx, result.Current)
		return result, nil
	}

	delta := model.Delta{Count: result.Delta, Link: n.link}
	if snapshot.HasItems {
		delta.Messages = snapshot.Newest(result.Delta)
	}
	n.logger.Info(ctx, "found new messages", "count", result.Delta, "detailed", delta.Detailed())

	result.Delivered, result.Failed = n.dispatch(ctx, delta)
	if len(n.channels) > 0 && len(result.Delivered) == 0 {
		n.logger.Error(ctx, "all notification channels failed", "channels", result.Failed)
		return result, model.ErrAllChannelsFailed
	}
	for _, name := range result.Failed {
		if n.required[name] {
			n.logger.Error(ctx, "required notification channel failed", "channel", name)
			return result, fmt.Errorf("%w: required channel %s failed", model.ErrAllChannelsFailed, name)
		}
	}

	result.Persisted = n.persist(ctx, result.Current)
	n.logger.Info(ctx, "check completed",
		"delivered", result.Delivered,
		"failed", result.Failed,
		"duration", time.Since(start))
	return result, nil
}

func (n *DeltaNotifier) lastCount(ctx context.Context) int {
	last, err := n.store.Load(ctx)
	if err != nil {
		n.logger.Warn(ctx, "could not read stored count, starting from 0", "error", err)
		return 0
	}
	if last < 0 {
		n.logger.Warn(ctx, "stored count is negative, starting from 0", "stored", last)
		return 0
	}
	return last
}

func (n *DeltaNotifier) dispatch(ctx context.Context, delta model.Delta) (delivered, failed []string) {
	if len(n.channels) == 0 {
		n.logger.Warn(ctx, "no notification channels configured")
		return nil, nil
	}

	for _, ch := range n.channels {
		err := n.send(ctx, ch, delta)
		if n.observer != nil {
			n.observer.ObserveChannel(ch.Name(), err)
		}
		if err != nil {
			n.logger.Error(ctx, "notification failed", "channel", ch.Name(), "error", err)
			failed = append(failed, ch.Name())
			continue
		}
		n.logger.Info(ctx, "notification sent", "channel", ch.Name())
		delivered = append(delivered, ch.Name())
	}
	return delivered, failed
}

// send turns an adapter panic into a channel error.
func (n *DeltaNotifier) send(ctx context.Context, ch ports.Channel, delta model.Delta) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel %s panicked: %v", ch.Name(), r)
		}
	}()
	return ch.Send(ctx, delta)
}

func (n *DeltaNotifier) persist(ctx context.Context, count int) bool {
	if err := n.store.Save(ctx, count); err != nil {
		err = errors.Join(model.ErrPersistence, err)
		n.logger.Error(ctx, "failed to save message count", "count", count, "error", err)
		return false
	}
	n.logger.Debug(ctx, "saved message count", "count", count)
	return true
}
