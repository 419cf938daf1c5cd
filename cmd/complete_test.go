package cmd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/holdfast-dev/holdfast/config"
	"github.com/holdfast-dev/holdfast/pkg/fail"
	"github.com/holdfast-dev/holdfast/resilience"
	"github.com/holdfast-dev/holdfast/transport"
)

func TestApplyOverrides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options completeOptions
		check   func(t *testing.T, cfg *config.Config)
		wantErr bool
	}{
		{
			name:    "no overrides keeps defaults",
			options: completeOptions{},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Model != config.DefaultModel {
					t.Errorf("unexpected model %q", cfg.Model)
				}
			},
		},
		{
			name: "flags win over config",
			options: completeOptions{
				model:          "o1",
				baseURL:        "http://other:8080/v1",
				provider:       "anthropic",
				attemptTimeout: "10m",
				maxWait:        "1d",
			},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Model != "o1" || cfg.BaseURL != "http://other:8080/v1" || cfg.Provider != "anthropic" {
					t.Errorf("overrides not applied: %+v", cfg)
				}
				if cfg.AttemptTimeout.Duration() != 10*time.Minute {
					t.Errorf("expected 10m attempt timeout, got %s", cfg.AttemptTimeout)
				}
				if cfg.MaxWait.Duration() != 24*time.Hour {
					t.Errorf("expected 1d max wait, got %s", cfg.MaxWait)
				}
			},
		},
		{
			name:    "invalid duration",
			options: completeOptions{maxWait: "soon"},
			wantErr: true,
		},
		{
			name:    "invalid provider",
			options: completeOptions{provider: "cohere"},
			wantErr: true,
		},
		{
			name: "budget below attempt timeout rejected",
			options: completeOptions{
				attemptTimeout: "2h",
				maxWait:        "1h",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			err := applyOverrides(cfg, &tt.options)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestPresentFailure(t *testing.T) {
	t.Parallel()

	t.Run("rejected becomes a user error", func(t *testing.T) {
		t.Parallel()

		err := presentFailure(&resilience.Rejected{StatusCode: 404, Attempts: 1}, "key-1")

		var userErr *fail.UserError
		if !errors.As(err, &userErr) {
			t.Fatalf("expected *fail.UserError, got %T", err)
		}
	})

	t.Run("deadline keeps the idempotency key visible", func(t *testing.T) {
		t.Parallel()

		err := presentFailure(&resilience.DeadlineExceeded{Attempts: 12, MaxWait: 24 * time.Hour}, "key-2")

		var userErr *fail.UserError
		if !errors.As(err, &userErr) {
			t.Fatalf("expected *fail.UserError, got %T", err)
		}
		found := false
		for _, solution := range userErr.Solutions {
			if strings.Contains(solution, "key-2") {
				found = true
			}
		}
		if !found {
			t.Error("deadline advice should mention the idempotency key for resuming")
		}
	})

	t.Run("unknown errors pass through", func(t *testing.T) {
		t.Parallel()

		plain := errors.New("boom")
		if got := presentFailure(plain, "key-3"); !errors.Is(got, plain) {
			t.Errorf("expected passthrough, got %v", got)
		}
	})
}

func TestDescribeOutcome(t *testing.T) {
	t.Parallel()

	got := describeOutcome(transport.Outcome{Kind: transport.OutcomeServerError, StatusCode: 503})
	if !strings.Contains(got, "503") {
		t.Errorf("server error description should carry the status, got %q", got)
	}
}
