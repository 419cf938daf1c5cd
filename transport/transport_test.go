package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

// timeoutError implements net.Error the way DNS and dial timeouts surface.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   OutcomeKind
	}{
		{name: "internal server error", status: 500, want: OutcomeServerError},
		{name: "bad gateway", status: 502, want: OutcomeServerError},
		{name: "overloaded", status: 529, want: OutcomeServerError},
		{name: "bad request", status: 400, want: OutcomeClientError},
		{name: "not found", status: 404, want: OutcomeClientError},
		{name: "too many requests", status: 429, want: OutcomeClientError},
		{name: "upper bound of client band", status: 499, want: OutcomeClientError},
		{name: "unexpected success code", status: 200, want: OutcomeUnexpected},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ClassifyStatus(tt.status); got != tt.want {
				t.Errorf("ClassifyStatus(%d) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want OutcomeKind
	}{
		{
			name: "attempt deadline",
			err:  context.DeadlineExceeded,
			want: OutcomeTimeout,
		},
		{
			name: "wrapped attempt deadline",
			err:  &net.OpError{Op: "read", Err: context.DeadlineExceeded},
			want: OutcomeTimeout,
		},
		{
			name: "net timeout",
			err:  timeoutError{},
			want: OutcomeTimeout,
		},
		{
			name: "connection refused",
			err:  &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			want: OutcomeConnectionError,
		},
		{
			name: "connection reset",
			err:  syscall.ECONNRESET,
			want: OutcomeConnectionError,
		},
		{
			name: "dropped mid-body",
			err:  io.ErrUnexpectedEOF,
			want: OutcomeConnectionError,
		},
		{
			name: "unclassified",
			err:  errors.New("mystery failure"),
			want: OutcomeUnexpected,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outcome := ClassifyError(tt.err)
			if outcome.Kind != tt.want {
				t.Errorf("ClassifyError(%v).Kind = %v, want %v", tt.err, outcome.Kind, tt.want)
			}
			if !errors.Is(outcome.Err, tt.err) {
				t.Errorf("outcome should carry the original error")
			}
		})
	}
}

func TestOutcomeKindString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind OutcomeKind
		want string
	}{
		{OutcomeSuccess, "success"},
		{OutcomeTimeout, "timeout"},
		{OutcomeConnectionError, "connection_error"},
		{OutcomeServerError, "server_error"},
		{OutcomeClientError, "client_error"},
		{OutcomeUnexpected, "unexpected"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("OutcomeKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestNewTransportRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAITransport(""); err == nil {
		t.Error("expected error for missing openai API key")
	}
	if _, err := NewAnthropicTransport(""); err == nil {
		t.Error("expected error for missing anthropic API key")
	}

	if _, err := NewOpenAITransport("dummy", WithBaseURL("http://localhost:8080/v1")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestToOpenAIMessages(t *testing.T) {
	t.Parallel()

	req := &Request{
		Model:  "gpt-4",
		System: "be terse",
		Messages: []Message{
			{Role: RoleUser, Content: "hello"},
			{Role: RoleAssistant, Content: "hi"},
			{Role: RoleUser, Content: "bye"},
		},
	}

	messages := toOpenAIMessages(req)
	if len(messages) != 4 {
		t.Errorf("expected system prompt plus 3 messages, got %d", len(messages))
	}

	req.System = ""
	if got := len(toOpenAIMessages(req)); got != 3 {
		t.Errorf("expected 3 messages without system prompt, got %d", got)
	}
}

func TestToAnthropicMessages(t *testing.T) {
	t.Parallel()

	req := &Request{
		Model: "claude-sonnet-4-20250514",
		Messages: []Message{
			{Role: RoleUser, Content: "hello"},
			{Role: RoleAssistant, Content: "hi"},
		},
	}

	messages := toAnthropicMessages(req)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != anthropic.MessageParamRoleUser {
		t.Errorf("expected user role, got %q", messages[0].Role)
	}
	if messages[1].Role != anthropic.MessageParamRoleAssistant {
		t.Errorf("expected assistant role, got %q", messages[1].Role)
	}
}
