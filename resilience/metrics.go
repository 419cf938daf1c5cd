package resilience

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holdfast-dev/holdfast/transport"
)

// Metrics is a RetryHook recording attempt outcomes and run durations.
type Metrics struct {
	retries     *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "holdfast_retries_total",
			Help: "Retried attempts by outcome classification.",
		}, []string{"outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "holdfast_runs_total",
			Help: "Completed runs by terminal result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "holdfast_run_duration_seconds",
			Help: "Wall-clock duration of completed runs.",
			// Runs span seconds to a full day.
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}

	registry.MustRegister(m.retries, m.runs, m.runDuration)
	return m
}

func (m *Metrics) OnRetryAttempt(_ context.Context, _ int, outcome transport.Outcome, _ time.Duration) {
	m.retries.WithLabelValues(outcome.Kind.String()).Inc()
}

func (m *Metrics) OnRetrySuccess(_ context.Context, _ int, totalDuration time.Duration) {
	m.runs.WithLabelValues("success").Inc()
	m.runDuration.Observe(totalDuration.Seconds())
}

func (m *Metrics) OnRetryFailure(_ context.Context, err error, _ int, totalDuration time.Duration) {
	m.runs.WithLabelValues(failureLabel(err)).Inc()
	m.runDuration.Observe(totalDuration.Seconds())
}

func failureLabel(err error) string {
	switch err.(type) {
	case *Rejected:
		return "rejected"
	case *DeadlineExceeded:
		return "deadline_exceeded"
	case *Cancelled:
		return "cancelled"
	default:
		return "error"
	}
}
