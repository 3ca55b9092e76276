package desktop

import (
	"context"
	"errors"
	"fmt"

	"github.com/gen2brain/beeep"

	"contact-monitor/internal/domain/model"
	"contact-monitor/internal/domain/ports"
)

// NotifyFunc shows one desktop notification.
type NotifyFunc func(title, message string) error

// Channel shows best-effort desktop toasts.
type Channel struct {
	notify NotifyFunc
	logger ports.Logger
}

var _ ports.Channel = (*Channel)(nil)

// New creates a toast channel using the platform notifier.
func New(logger ports.Logger) *Channel {
	return &Channel{
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		logger: logger,
	}
}

// WithNotifier swaps the platform notifier.
func (c *Channel) WithNotifier(notify NotifyFunc) *Channel {
	c.notify = notify
	return c
}

// Name identifies the channel in logs and metrics.
func (c *Channel) Name() string { return "desktop" }

// Send shows a toast per message. It fails only when no toast could be shown.
func (c *Channel) Send(ctx context.Context, delta model.Delta) error {
	var (
		shown int
		errs  []error
	)

	if !delta.Detailed() {
		summary := delta.Summary()
		if err := c.notify(summary.Title, summary.Description); err != nil {
			return fmt.Errorf("show toast: %w", err)
		}
		return nil
	}

	for _, m := range delta.Messages {
		body := fmt.Sprintf("From: %s\nEmail: %s", m.SenderName(), m.SenderEmail())
		if err := c.notify("New Contact Message", body); err != nil {
			errs = append(errs, err)
			continue
		}
		shown++
	}

	if shown == 0 && len(errs) > 0 {
		return fmt.Errorf("show toast: %w", errors.Join(errs...))
	}
	if len(errs) > 0 {
		c.logger.Warn(ctx, "some desktop notifications failed", "shown", shown, "failed", len(errs))
	}
	return nil
}
