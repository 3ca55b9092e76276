package source

import (
	"context"

	"contact-monitor/internal/domain/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}

var _ ports.Logger = nopLogger{}

// fastRetry keeps tests quick while still exercising retries.
func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts}
}
