package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"contact-monitor/internal/domain/model"
	"contact-monitor/internal/domain/ports"
)

// Cycle runs one check.
type Cycle interface {
	Run(ctx context.Context) (model.CycleResult, error)
}

// Settings holds the scheduling knobs of the App.
type Settings struct {
	Schedule     string
	MetricsAddr  string
	CycleTimeout time.Duration
}

// App manages the lifecycle of the contact monitor.
type App struct {
	cycle    Cycle
	metrics  http.Handler
	logger   ports.Logger
	settings Settings
}

// New constructs an App instance. metrics may be nil.
func New(cycle Cycle, metrics http.Handler, logger ports.Logger, settings Settings) *App {
	if settings.CycleTimeout <= 0 {
		settings.CycleTimeout = 5 * time.Minute
	}
	return &App{
		cycle:    cycle,
		metrics:  metrics,
		logger:   logger,
		settings: settings,
	}
}

// Check runs a single cycle.
func (a *App) Check(ctx context.Context) (model.CycleResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.settings.CycleTimeout)
	defer cancel()

	result, err := a.cycle.Run(ctx)
	if err != nil {
		a.logger.Error(ctx, "check failed", "error", err)
		return result, err
	}
	a.logger.Info(ctx, "check succeeded", "current", result.Current, "new", max(result.Delta, 0))
	return result, nil
}

// Watch executes a cycle immediately and then according to the cron schedule
// until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{ctx: ctx, logger: a.logger}),
		cron.SkipIfStillRunning(cronLogger{ctx: ctx, logger: a.logger}),
	))
	if _, err := c.AddFunc(a.settings.Schedule, func() {
		if _, err := a.Check(ctx); err != nil {
			a.logger.Error(ctx, "scheduled check failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", a.settings.Schedule, err)
	}

	stopMetrics, err := a.serveMetrics(ctx)
	if err != nil {
		return err
	}
	defer stopMetrics()

	a.logger.Info(ctx, "running first check immediately")
	if _, err := a.Check(ctx); err != nil {
		a.logger.Error(ctx, "initial check failed", "error", err)
	}

	a.logger.Info(ctx, "starting scheduler", "cron", a.settings.Schedule)
	c.Start()

	<-ctx.Done()
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
	}
	a.logger.Info(context.Background(), "scheduler stopped")
	return nil
}

func (a *App) serveMetrics(ctx context.Context) (func(), error) {
	if a.settings.MetricsAddr == "" || a.metrics == nil {
		return func() {}, nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics)
	srv := &http.Server{
		Addr:              a.settings.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("metrics server: %w", err)
		}
	case <-time.After(100 * time.Millisecond):
	}
	a.logger.Info(ctx, "serving metrics", "addr", a.settings.MetricsAddr)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}

// cronLogger routes cron's internal logging through ports.Logger.
type cronLogger struct {
	ctx    context.Context
	logger ports.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(l.ctx, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(l.ctx, "cron: "+msg, append(keysAndValues, "error", err)...)
}
