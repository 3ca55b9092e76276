//go:build wireinject

package di

import (
	"github.com/google/wire"

	"contact-monitor/internal/adapter/logging"
	"contact-monitor/internal/adapter/metrics"
	"contact-monitor/internal/app"
	"contact-monitor/internal/config"
	"contact-monitor/internal/domain/ports"
	"contact-monitor/internal/usecase"
)

// InitializeApp wires the application components together.
func InitializeApp(opts config.Options) (*app.App, func(), error) {
	wire.Build(
		config.Load,
		provideZerolog,
		logging.New,
		wire.Bind(new(ports.Logger), new(*logging.ZeroLogger)),
		provideRetryPolicy,
		provideFetcher,
		provideChannels,
		provideStore,
		metrics.NewRecorder,
		wire.Bind(new(ports.CycleObserver), new(*metrics.Recorder)),
		provideMetricsHandler,
		provideNotifierConfig,
		usecase.NewDeltaNotifier,
		wire.Bind(new(app.Cycle), new(*usecase.DeltaNotifier)),
		provideSettings,
		app.New,
	)
	return nil, nil, nil
}

// InitializeState wires only what the state commands need.
func InitializeState(opts config.Options) (*app.State, func(), error) {
	wire.Build(
		config.LoadState,
		provideZerolog,
		logging.New,
		wire.Bind(new(ports.Logger), new(*logging.ZeroLogger)),
		provideStore,
		app.NewState,
	)
	return nil, nil, nil
}
