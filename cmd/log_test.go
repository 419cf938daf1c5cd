package cmd

import (
	"log/slog"
	"testing"
)

func TestLogLevelSet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "WARN", want: slog.LevelWarn},
		{input: "verbose", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			var level LogLevel
			err := level.Set(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := level.SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogLevelDefaultsToWarn(t *testing.T) {
	t.Parallel()

	var level LogLevel
	if got := level.SlogLevel(); got != slog.LevelWarn {
		t.Errorf("unset level should default to warn, got %v", got)
	}
	if got := level.String(); got != "warn" {
		t.Errorf("unset level should print as warn, got %q", got)
	}
}
