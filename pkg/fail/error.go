// Package fail turns terminal failures into actionable messages for CLI
// users.
package fail

import (
	"fmt"
	"strings"
	"time"

	"github.com/holdfast-dev/holdfast/pkg/terminal"
)

type UserError struct {
	Cause       error
	UserMessage string
	Solutions   []string
	TechDetails string
}

func (e *UserError) Error() string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("%s %s\n\n", terminal.ErrorSymbol, terminal.Bold(e.UserMessage)))

	if len(e.Solutions) > 0 {
		msg.WriteString(fmt.Sprintf("%s Try these solutions:\n", terminal.InfoSymbol))
		for i, solution := range e.Solutions {
			msg.WriteString(fmt.Sprintf("  %d. %s\n", i+1, solution))
		}
		msg.WriteString("\n")
	}

	if e.TechDetails != "" {
		msg.WriteString(fmt.Sprintf("Technical details: %s\n", e.TechDetails))
	}

	return msg.String()
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

func NewRejectedError(statusCode int, err error) *UserError {
	return &UserError{
		Cause:       err,
		UserMessage: fmt.Sprintf("The backend rejected the request (status %d)", statusCode),
		Solutions: []string{
			"Check the model name; unknown models are rejected with 404",
			"Verify the request payload; rejected requests are not retried",
			"Inspect proxy logs for the rejection reason",
		},
		TechDetails: err.Error(),
	}
}

func NewDeadlineError(maxWait time.Duration, attempts int, idempotencyKey string) *UserError {
	return &UserError{
		UserMessage: fmt.Sprintf("No result within the %s budget", maxWait),
		Solutions: []string{
			"The job may still be running server-side; it was not cancelled",
			fmt.Sprintf("Rerun with --idempotency-key %s to pick up the same job", idempotencyKey),
			"Raise the budget with --max-wait (accepts day suffixes, e.g. 2d)",
		},
		TechDetails: fmt.Sprintf("%d attempts made before the deadline", attempts),
	}
}

func NewConfigError(path string, err error) *UserError {
	return &UserError{
		Cause:       err,
		UserMessage: fmt.Sprintf("Invalid configuration in %s", path),
		Solutions: []string{
			"Check the YAML syntax of the config file",
			"Durations accept Go syntax plus a day suffix (30s, 1h, 1d)",
		},
		TechDetails: err.Error(),
	}
}
