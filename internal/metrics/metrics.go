package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wirebridge"

// Collector holds the Prometheus instruments of the bridge. A nil *Collector
// is valid and records nothing.
type Collector struct {
	commandsTotal     *prometheus.CounterVec
	commandDuration   *prometheus.HistogramVec
	asyncPollsTotal   prometheus.Counter
	asyncResultsTotal *prometheus.CounterVec
	sessionsActive    prometheus.Gauge
	endpointsHealthy  prometheus.Gauge
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands finished, by wire name and outcome.",
		}, []string{"command", "outcome"}),
		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time from dispatch to terminal response.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		asyncPollsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "async_script_polls_total",
			Help:      "Polling scripts sent while waiting for async scripts.",
		}),
		asyncResultsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "async_script_results_total",
			Help:      "Async script outcomes: success, timeout, navigation, error.",
		}, []string{"outcome"}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held by the manager.",
		}),
		endpointsHealthy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "endpoints_healthy",
			Help:      "Remote ends that passed the last health probe.",
		}),
	}
}

// RecordCommand records one finished command.
func (c *Collector) RecordCommand(command, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.commandsTotal.WithLabelValues(command, outcome).Inc()
	c.commandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// RecordAsyncPoll counts one polling round trip.
func (c *Collector) RecordAsyncPoll() {
	if c == nil {
		return
	}
	c.asyncPollsTotal.Inc()
}

// RecordAsyncResult counts the outcome of one async script.
func (c *Collector) RecordAsyncResult(outcome string) {
	if c == nil {
		return
	}
	c.asyncResultsTotal.WithLabelValues(outcome).Inc()
}

// SetActiveSessions publishes the session count.
func (c *Collector) SetActiveSessions(n int) {
	if c == nil {
		return
	}
	c.sessionsActive.Set(float64(n))
}

// SetHealthyEndpoints publishes the number of healthy remote ends.
func (c *Collector) SetHealthyEndpoints(n int) {
	if c == nil {
		return
	}
	c.endpointsHealthy.Set(float64(n))
}
