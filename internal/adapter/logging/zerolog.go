package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"contact-monitor/internal/domain/ports"
)

// ZeroLogger is an adapter around zerolog.Logger implementing ports.Logger.
// Args are slog-style alternating key/value pairs.
type ZeroLogger struct {
	logger zerolog.Logger
}

var _ ports.Logger = (*ZeroLogger)(nil)

// New creates a new ZeroLogger.
func New(logger zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{logger: logger}
}

// NewZerolog builds a JSON logger writing to w at the given level. Unknown
// levels fall back to info.
func NewZerolog(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).
		With().
		Timestamp().
		Str("component", "contact-monitor").
		Logger().
		Level(lvl)
}

// Debug logs a debug message.
func (l *ZeroLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, l.logger.Debug(), msg, args)
}

// Info logs an informational message.
func (l *ZeroLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, l.logger.Info(), msg, args)
}

// Warn logs a warning.
func (l *ZeroLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, l.logger.Warn(), msg, args)
}

// Error logs an error message.
func (l *ZeroLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, l.logger.Error(), msg, args)
}

func (l *ZeroLogger) log(ctx context.Context, ev *zerolog.Event, msg string, args []any) {
	if ev == nil {
		return
	}
	if ctx != nil {
		ev = ev.Ctx(ctx)
	}
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = "!BADKEY"
		}
		if i+1 >= len(args) {
			ev = ev.Interface(key, nil)
			break
		}
		switch v := args[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}
