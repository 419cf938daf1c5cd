package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/holdfast-dev/holdfast/transport"
)

func TestMetricsRecordsOutcomes(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	ctx := context.Background()
	metrics.OnRetryAttempt(ctx, 1, transport.Outcome{Kind: transport.OutcomeTimeout}, 30*time.Second)
	metrics.OnRetryAttempt(ctx, 2, transport.Outcome{Kind: transport.OutcomeServerError, StatusCode: 503}, 45*time.Second)
	metrics.OnRetrySuccess(ctx, 3, 2*time.Minute)

	if got := testutil.ToFloat64(metrics.retries.WithLabelValues("timeout")); got != 1 {
		t.Errorf("expected 1 timeout retry, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.retries.WithLabelValues("server_error")); got != 1 {
		t.Errorf("expected 1 server_error retry, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("success")); got != 1 {
		t.Errorf("expected 1 successful run, got %v", got)
	}
}

func TestMetricsFailureLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "rejected", err: &Rejected{StatusCode: 404}, want: "rejected"},
		{name: "deadline", err: &DeadlineExceeded{Attempts: 5}, want: "deadline_exceeded"},
		{name: "cancelled", err: &Cancelled{Attempts: 1}, want: "cancelled"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			registry := prometheus.NewRegistry()
			metrics := NewMetrics(registry)

			metrics.OnRetryFailure(context.Background(), tt.err, 1, time.Minute)

			if got := testutil.ToFloat64(metrics.runs.WithLabelValues(tt.want)); got != 1 {
				t.Errorf("expected 1 run labelled %q, got %v", tt.want, got)
			}
		})
	}
}
