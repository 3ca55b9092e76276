package ports

import (
	"context"
	"time"
)

// CountStore persists the last observed message count between runs.
//
// Load returns 0 with a nil error when nothing has been stored yet.
type CountStore interface {
	Load(ctx context.Context) (int, error)
	Save(ctx context.Context, count int) error
}

// CountRecord is one historical save.
type CountRecord struct {
	Count   int
	SavedAt time.Time
}

// CountHistory is implemented by stores that keep an audit trail.
type CountHistory interface {
	History(ctx context.Context, limit int) ([]CountRecord, error)
}
