package resilience

import (
	"fmt"
	"time"
)

// Rejected is a non-retryable backend response (status in [400,500)). The
// driver returns it on the first occurrence without a backoff sleep.
type Rejected struct {
	StatusCode int
	Attempts   int
	Err        error
}

func (e *Rejected) Error() string {
	return fmt.Sprintf("request rejected with status %d: %v", e.StatusCode, e.Err)
}

func (e *Rejected) Unwrap() error {
	return e.Err
}

// DeadlineExceeded means the wall-clock budget ran out while outcomes were
// still retryable. The job may still complete server-side; rerunning with
// the same idempotency key picks up the same job.
type DeadlineExceeded struct {
	Attempts int
	Elapsed  time.Duration
	MaxWait  time.Duration
}

func (e *DeadlineExceeded) Error() string {
	return fmt.Sprintf("no terminal outcome within %s (%d attempts over %s)",
		e.MaxWait, e.Attempts, e.Elapsed.Round(time.Second))
}

// Cancelled means the caller aborted the run, either mid-attempt or during
// a backoff sleep.
type Cancelled struct {
	Attempts int
	Err      error
}

func (e *Cancelled) Error() string {
	return fmt.Sprintf("run cancelled after %d attempts: %v", e.Attempts, e.Err)
}

func (e *Cancelled) Unwrap() error {
	return e.Err
}
