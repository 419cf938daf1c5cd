package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/holdfast-dev/holdfast/transport"
)

// RetryHook observes the retry loop. OnRetryAttempt fires after each
// retryable outcome, before the backoff sleep; exactly one of
// OnRetrySuccess or OnRetryFailure fires per Run.
type RetryHook interface {
	OnRetryAttempt(ctx context.Context, attempt int, outcome transport.Outcome, nextDelay time.Duration)
	OnRetrySuccess(ctx context.Context, attempts int, totalDuration time.Duration)
	OnRetryFailure(ctx context.Context, err error, attempts int, totalDuration time.Duration)
}

// SlogHook logs the retry loop with structured attributes.
type SlogHook struct {
	logger *slog.Logger
}

func NewSlogHook(logger *slog.Logger) *SlogHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogHook{logger: logger}
}

func (h *SlogHook) OnRetryAttempt(ctx context.Context, attempt int, outcome transport.Outcome, nextDelay time.Duration) {
	h.logger.LogAttrs(ctx, slog.LevelWarn, "attempt failed, will retry",
		slog.Int("attempt", attempt),
		slog.String("outcome", outcome.Kind.String()),
		slog.Int("status", outcome.StatusCode),
		slog.Duration("next_delay", nextDelay),
	)
}

func (h *SlogHook) OnRetrySuccess(ctx context.Context, attempts int, totalDuration time.Duration) {
	h.logger.LogAttrs(ctx, slog.LevelInfo, "request completed",
		slog.Int("attempts", attempts),
		slog.Duration("total_duration", totalDuration),
	)
}

func (h *SlogHook) OnRetryFailure(ctx context.Context, err error, attempts int, totalDuration time.Duration) {
	h.logger.LogAttrs(ctx, slog.LevelError, "request failed",
		slog.String("error", err.Error()),
		slog.Int("attempts", attempts),
		slog.Duration("total_duration", totalDuration),
	)
}
