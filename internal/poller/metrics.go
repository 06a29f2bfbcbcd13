package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	casesCreatedCounter  prometheus.Counter
	duplicateSkipCounter prometheus.Counter
	pollFailureCounter   prometheus.Counter
	pollCycleDuration    prometheus.Histogram
	eventsFetchedCounter prometheus.Counter
}

func NewMetrics() *Metrics {
	metrics := new(Metrics)

	metrics.casesCreatedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securityiq_connector_poll_cases_created_count",
		Help: "The number of cases created on the host platform during polling",
	})

	metrics.duplicateSkipCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securityiq_connector_poll_duplicate_skip_count",
		Help: "The number of remote alerts skipped because they were already ingested",
	})

	metrics.pollFailureCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securityiq_connector_poll_failure_count",
		Help: "The number of poll cycles that ended in a failure",
	})

	metrics.pollCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "securityiq_connector_poll_cycle_duration",
		Help: "The amount of time one poll cycle took",
	})

	metrics.eventsFetchedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securityiq_connector_poll_events_fetched_count",
		Help: "The number of alert events fetched from the remote service",
	})

	return metrics
}

var (
	metrics = NewMetrics()
)
