package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/holdfast-dev/holdfast/pkg/terminal"
	"github.com/holdfast-dev/holdfast/transport"
)

// progressReporter renders the retry loop on a spinner line so a wait of
// hours is observable, not silent. It implements resilience.RetryHook.
type progressReporter struct {
	spinner *terminal.Spinner
	writer  io.Writer
	quiet   bool
	start   time.Time
}

func newProgressReporter(writer io.Writer, quiet bool) *progressReporter {
	return &progressReporter{
		spinner: terminal.NewSpinner(writer, "attempt 1 in flight"),
		writer:  writer,
		quiet:   quiet,
	}
}

func (r *progressReporter) Start() {
	r.start = time.Now()
	if !r.quiet {
		r.spinner.Start()
	}
}

// Finish stops the spinner; the terminal line is written by the hook
// callbacks or the command's error handling.
func (r *progressReporter) Finish(err error) {
	if r.quiet {
		return
	}
	if err != nil {
		r.spinner.Stop("")
	}
}

func (r *progressReporter) OnRetryAttempt(_ context.Context, attempt int, outcome transport.Outcome, nextDelay time.Duration) {
	if r.quiet {
		return
	}

	r.spinner.UpdateMessage(fmt.Sprintf("attempt %d %s · next attempt %d in %s · elapsed %s",
		attempt, describeOutcome(outcome), attempt+1, nextDelay, r.elapsed()))
}

func (r *progressReporter) OnRetrySuccess(_ context.Context, attempts int, totalDuration time.Duration) {
	if r.quiet {
		return
	}

	r.spinner.Stop(fmt.Sprintf("%s Completed after %d attempt(s) in %s",
		terminal.SuccessSymbol, attempts, totalDuration.Round(time.Second)))
}

func (r *progressReporter) OnRetryFailure(_ context.Context, _ error, _ int, _ time.Duration) {
	// Finish erases the spinner; the command prints the failure.
}

func (r *progressReporter) elapsed() time.Duration {
	return time.Since(r.start).Round(time.Second)
}

func describeOutcome(outcome transport.Outcome) string {
	switch outcome.Kind {
	case transport.OutcomeTimeout:
		return fmt.Sprintf("timed out %s", terminal.TimerSymbol)
	case transport.OutcomeConnectionError:
		return "lost the connection"
	case transport.OutcomeServerError:
		return fmt.Sprintf("hit a server error (%d)", outcome.StatusCode)
	default:
		return "failed unexpectedly"
	}
}
