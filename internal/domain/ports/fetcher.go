package ports

import (
	"context"

	"contact-monitor/internal/domain/model"
)

// Fetcher reads the current state of the contact form backend.
type Fetcher interface {
	Fetch(ctx context.Context) (model.Snapshot, error)
}
