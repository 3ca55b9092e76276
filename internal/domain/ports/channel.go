package ports

import (
	"context"

	"contact-monitor/internal/domain/model"
)

// Channel delivers a delta through one medium (e.g. email, Discord).
type Channel interface {
	Name() string
	Send(ctx context.Context, delta model.Delta) error
}
