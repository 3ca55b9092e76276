package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contact-monitor/internal/domain/model"
	"contact-monitor/internal/domain/ports"
)

// Cycle outcomes used as the "result" label.
const (
	ResultOK            = "ok"
	ResultFetchError    = "fetch_error"
	ResultChannelsError = "channels_failed"
	ResultError         = "error"
)

// Recorder exports cycle and channel outcomes as Prometheus metrics.
type Recorder struct {
	registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	persistFails  prometheus.Counter
	newMessages   prometheus.Counter
	lastCount     prometheus.Gauge
}

var _ ports.CycleObserver = (*Recorder)(nil)

// NewRecorder registers the monitor metrics on a private registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contact_monitor",
			Name:      "cycles_total",
			Help:      "Check cycles by result.",
		}, []string{"result"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contact_monitor",
			Name:      "notifications_total",
			Help:      "Channel deliveries by channel and result.",
		}, []string{"channel", "result"}),
		persistFails: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "contact_monitor",
			Name:      "persist_failures_total",
			Help:      "Cycles whose observed count could not be stored.",
		}),
		newMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "contact_monitor",
			Name:      "new_messages_total",
			Help:      "New messages detected across cycles.",
		}),
		lastCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "contact_monitor",
			Name:      "observed_messages",
			Help:      "Message count observed by the last successful fetch.",
		}),
	}
}

// ObserveCycle records the outcome of one cycle.
func (r *Recorder) ObserveCycle(result model.CycleResult, err error) {
	r.cycles.WithLabelValues(cycleResult(err)).Inc()
	if errors.Is(err, model.ErrFetch) {
		return
	}

	r.lastCount.Set(float64(result.Current))
	if err == nil && result.Delta > 0 {
		r.newMessages.Add(float64(result.Delta))
	}
	if err == nil && !result.Persisted {
		r.persistFails.Inc()
	}
}

// ObserveChannel records one channel delivery.
func (r *Recorder) ObserveChannel(channel string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	r.notifications.WithLabelValues(channel, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func cycleResult(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, model.ErrFetch):
		return ResultFetchError
	case errors.Is(err, model.ErrAllChannelsFailed):
		return ResultChannelsError
	default:
		return ResultError
	}
}
