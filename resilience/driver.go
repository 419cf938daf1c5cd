// Package resilience drives a single idempotent, long-running request to
// completion across transient failures. The backend may take minutes to days
// to produce a result; the driver keeps resubmitting the same payload under
// one idempotency key until it gets a terminal outcome or the wall-clock
// budget runs out.
package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/holdfast-dev/holdfast/transport"
)

// RetryConfig bounds one logical request. MaxWait is a wall-clock budget
// computed once at the start of Run; an in-flight attempt is never
// preempted, so the budget can overshoot by up to one AttemptTimeout.
type RetryConfig struct {
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	AttemptTimeout    time.Duration
	MaxWait           time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelay:      30 * time.Second,
		MaxDelay:          5 * time.Minute,
		BackoffMultiplier: 1.5,
		AttemptTimeout:    1 * time.Hour,
		MaxWait:           24 * time.Hour,
	}
}

func (c RetryConfig) Validate() error {
	if c.AttemptTimeout <= 0 {
		return fmt.Errorf("attempt timeout must be positive")
	}
	if c.MaxWait <= 0 {
		return fmt.Errorf("max wait must be positive")
	}
	if c.MaxWait < c.AttemptTimeout {
		return fmt.Errorf("max wait %s is shorter than attempt timeout %s", c.MaxWait, c.AttemptTimeout)
	}
	if c.InitialDelay <= 0 {
		return fmt.Errorf("initial delay must be positive")
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("max delay %s is shorter than initial delay %s", c.MaxDelay, c.InitialDelay)
	}
	if c.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff multiplier must be at least 1")
	}
	return nil
}

// Driver owns the retry loop for logical requests. It holds no per-request
// state; every Run call gets a fresh backoff schedule and attempt counter,
// so independent Runs may execute concurrently.
type Driver struct {
	transport transport.Transport
	config    RetryConfig
	hooks     []RetryHook
	breaker   *CircuitBreaker

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type DriverOption func(*Driver)

func WithRetryConfig(config RetryConfig) DriverOption {
	return func(d *Driver) {
		d.config = config
	}
}

func WithRetryHooks(hooks ...RetryHook) DriverOption {
	return func(d *Driver) {
		d.hooks = append(d.hooks, hooks...)
	}
}

func WithCircuitBreaker(breaker *CircuitBreaker) DriverOption {
	return func(d *Driver) {
		d.breaker = breaker
	}
}

func NewDriver(t transport.Transport, opts ...DriverOption) (*Driver, error) {
	if t == nil {
		return nil, fmt.Errorf("transport is required")
	}

	driver := &Driver{
		transport: t,
		config:    DefaultRetryConfig(),
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(driver)
	}

	if err := driver.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}

	return driver, nil
}

// Run delivers one logical request. The idempotency key is generated once
// when empty and reused verbatim on every attempt; changing it mid-run would
// let the backend treat retries as new jobs.
//
// Run returns the response on success, or one of *Rejected (4xx, no
// retries), *DeadlineExceeded (budget exhausted while outcomes remained
// retryable) or *Cancelled (ctx aborted). A *DeadlineExceeded does not mean
// the job failed; it may still be running server-side.
func (d *Driver) Run(ctx context.Context, req *transport.Request, idempotencyKey string) (*transport.Response, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	start := d.now()
	deadline := start.Add(d.config.MaxWait)
	schedule := d.newSchedule()
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, d.cancelled(ctx, attempts, start, err)
		}
		if !d.now().Before(deadline) {
			failure := &DeadlineExceeded{
				Attempts: attempts,
				Elapsed:  d.now().Sub(start),
				MaxWait:  d.config.MaxWait,
			}
			d.onFailure(ctx, failure, attempts, start)
			return nil, failure
		}

		if d.breaker != nil && !d.breaker.Allow() {
			delay := schedule.NextBackOff()
			if err := d.sleep(ctx, delay); err != nil {
				return nil, d.cancelled(ctx, attempts, start, err)
			}
			continue
		}

		attempts++
		outcome := d.transport.Send(ctx, req, d.config.AttemptTimeout, idempotencyKey)
		// A response that already arrived wins a cancellation race.
		if outcome.Kind != transport.OutcomeSuccess {
			if err := ctx.Err(); err != nil {
				return nil, d.cancelled(ctx, attempts, start, err)
			}
		}
		if d.breaker != nil {
			d.breaker.RecordResult(outcome.Err)
		}

		switch outcome.Kind {
		case transport.OutcomeSuccess:
			for _, hook := range d.hooks {
				hook.OnRetrySuccess(ctx, attempts, d.now().Sub(start))
			}
			return outcome.Response, nil

		case transport.OutcomeClientError:
			failure := &Rejected{
				StatusCode: outcome.StatusCode,
				Attempts:   attempts,
				Err:        outcome.Err,
			}
			d.onFailure(ctx, failure, attempts, start)
			return nil, failure
		}

		// Timeout, connection error, 5xx and unclassified errors all fall
		// through here: optimistic retry until the deadline.
		delay := schedule.NextBackOff()
		for _, hook := range d.hooks {
			hook.OnRetryAttempt(ctx, attempts, outcome, delay)
		}
		if err := d.sleep(ctx, delay); err != nil {
			return nil, d.cancelled(ctx, attempts, start, err)
		}
	}
}

// newSchedule builds the per-run backoff schedule. RandomizationFactor is
// zero: the proxy dedupes by idempotency key, so herd protection matters
// less than a predictable worst-case gap between attempts.
func (d *Driver) newSchedule() *backoff.ExponentialBackOff {
	schedule := &backoff.ExponentialBackOff{
		InitialInterval:     d.config.InitialDelay,
		MaxInterval:         d.config.MaxDelay,
		Multiplier:          d.config.BackoffMultiplier,
		RandomizationFactor: 0,
	}
	schedule.Reset()
	return schedule
}

func (d *Driver) cancelled(ctx context.Context, attempts int, start time.Time, cause error) error {
	failure := &Cancelled{Attempts: attempts, Err: cause}
	d.onFailure(ctx, failure, attempts, start)
	return failure
}

func (d *Driver) onFailure(ctx context.Context, failure error, attempts int, start time.Time) {
	for _, hook := range d.hooks {
		hook.OnRetryFailure(ctx, failure, attempts, d.now().Sub(start))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
