package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "myfi"

// Outcome labels shared by the counters below.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

var registry = prometheus.NewRegistry()

var (
	identityOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "identity",
		Name:      "operations_total",
		Help:      "Identity state machine operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	ingestRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "rows_total",
		Help:      "Reference data rows processed by feed and outcome.",
	}, []string{"feed", "outcome"})

	defaultedMetrics = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "defaulted_metrics_total",
		Help:      "Scheme metrics that fell back to zero because the upstream value was missing or unparsable.",
	}, []string{"metric"})

	syncRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Reference data sync job runs by outcome.",
	}, []string{"outcome"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		identityOps,
		ingestRows,
		defaultedMetrics,
		syncRuns,
	)
}

// Handler exposes the registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func ObserveIdentity(operation string, err error) {
	identityOps.WithLabelValues(operation, outcomeOf(err)).Inc()
}

func ObserveIngestRow(feed, outcome string) {
	ingestRows.WithLabelValues(feed, outcome).Inc()
}

func ObserveDefaultedMetric(metric string) {
	defaultedMetrics.WithLabelValues(metric).Inc()
}

func ObserveSyncRun(err error) {
	syncRuns.WithLabelValues(outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
