// Package transport defines the boundary between the retry driver and the
// backends it delivers requests to. A transport performs exactly one attempt
// per Send call and reports the result as a tagged Outcome; it never retries
// on its own.
package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"
)

// IdempotencyKeyHeader is the header the backend uses to deduplicate retries
// of the same logical request.
const IdempotencyKeyHeader = "Idempotency-Key"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is the payload of one logical request. It is sent unmodified on
// every attempt.
type Request struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	MaxTokens int64     `json:"max_tokens,omitempty"`
}

type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

type Response struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// OutcomeKind is the exhaustive classification of a single attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeTimeout
	OutcomeConnectionError
	OutcomeServerError
	OutcomeClientError
	OutcomeUnexpected
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeConnectionError:
		return "connection_error"
	case OutcomeServerError:
		return "server_error"
	case OutcomeClientError:
		return "client_error"
	default:
		return "unexpected"
	}
}

// Outcome is the result of one attempt. Response is set only for
// OutcomeSuccess; StatusCode only for OutcomeServerError and
// OutcomeClientError.
type Outcome struct {
	Kind       OutcomeKind
	Response   *Response
	StatusCode int
	Err        error
}

func Success(resp *Response) Outcome {
	return Outcome{Kind: OutcomeSuccess, Response: resp}
}

// Transport sends one attempt of a request. The idempotency key must be
// attached so the backend recognizes retries of the same logical request.
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, req *Request, timeout time.Duration, idempotencyKey string) Outcome
}

// ClassifyStatus maps an HTTP status code to an outcome kind. 5xx is
// transient backend trouble; [400,500) is a request the client must not
// blindly resend.
func ClassifyStatus(status int) OutcomeKind {
	switch {
	case status >= 500:
		return OutcomeServerError
	case status >= 400:
		return OutcomeClientError
	default:
		return OutcomeUnexpected
	}
}

// ClassifyError maps a transport-level error (no HTTP status available) to
// an outcome. Anything unrecognized is reported as OutcomeUnexpected, which
// the driver treats as retryable.
func ClassifyError(err error) Outcome {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Outcome{Kind: OutcomeTimeout, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return Outcome{Kind: OutcomeTimeout, Err: err}
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return Outcome{Kind: OutcomeConnectionError, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Outcome{Kind: OutcomeConnectionError, Err: err}
	}

	return Outcome{Kind: OutcomeUnexpected, Err: err}
}
