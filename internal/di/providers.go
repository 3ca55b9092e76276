package di

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"contact-monitor/internal/adapter/desktop"
	"contact-monitor/internal/adapter/discord"
	"contact-monitor/internal/adapter/email"
	"contact-monitor/internal/adapter/logging"
	"contact-monitor/internal/adapter/metrics"
	"contact-monitor/internal/adapter/source"
	"contact-monitor/internal/adapter/store"
	"contact-monitor/internal/app"
	"contact-monitor/internal/config"
	"contact-monitor/internal/domain/ports"
	"contact-monitor/internal/usecase"
)

func provideZerolog(cfg *config.Config) zerolog.Logger {
	return logging.NewZerolog(os.Stdout, cfg.LogLevel)
}

func provideRetryPolicy(cfg *config.Config) source.RetryPolicy {
	return source.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Delay:       cfg.Retry.Delay,
		Exponential: cfg.Retry.Backoff == "exponential",
	}
}

func provideFetcher(cfg *config.Config, retry source.RetryPolicy, logger ports.Logger) (ports.Fetcher, error) {
	switch cfg.Source {
	case config.SourceAPI:
		return source.NewAPIFetcher(cfg.APIURL, cfg.APIKey, cfg.RequestTimeout, retry, logger), nil
	case config.SourceAdmin:
		return source.NewAdminScraper(cfg.AdminURL, cfg.AdminPassword, cfg.RequestTimeout, retry, logger), nil
	case config.SourceBrowser:
		opts := source.BrowserOptions{
			ChromePath: cfg.Browser.ChromePath,
			Timeout:    cfg.RequestTimeout,
			Settle:     cfg.Browser.Settle,
		}
		return source.NewBrowserFetcher(cfg.APIURL, cfg.APIKey, opts, retry, logger), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func provideChannels(cfg *config.Config, logger ports.Logger) []ports.Channel {
	var channels []ports.Channel
	if cfg.EmailEnabled() {
		channels = append(channels, email.New(email.Options{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.User,
			Password: cfg.Email.Password,
			To:       cfg.Recipient(),
			Timeout:  cfg.RequestTimeout,
		}, logger))
	}
	if cfg.Desktop.Enabled {
		channels = append(channels, desktop.New(logger))
	}
	if cfg.DiscordEnabled() {
		channels = append(channels, discord.NewWebhook(cfg.Discord.WebhookURL, cfg.RequestTimeout, cfg.Discord.RatePerSec, logger))
	}
	return channels
}

func provideStore(cfg *config.Config) (ports.CountStore, func(), error) {
	switch cfg.State.Backend {
	case config.BackendSQLite:
		db, err := store.OpenSQLite(context.Background(), cfg.State.DB)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	default:
		return store.NewFileStore(cfg.State.File), func() {}, nil
	}
}

func provideNotifierConfig(cfg *config.Config) usecase.DeltaNotifierConfig {
	return usecase.DeltaNotifierConfig{
		Link:     cfg.AdminLink(),
		Required: cfg.RequiredChannels(),
	}
}

func provideMetricsHandler(rec *metrics.Recorder) http.Handler {
	return rec.Handler()
}

func provideSettings(cfg *config.Config) app.Settings {
	return app.Settings{
		Schedule:    cfg.ScheduleCron,
		MetricsAddr: cfg.MetricsAddr,
	}
}
