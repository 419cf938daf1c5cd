package cmd

import (
	"fmt"
	"log/slog"
	"strings"
)

// LogLevel is a pflag.Value for --log-level. The default keeps logs quiet
// so progress reporting owns the terminal.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func (l *LogLevel) String() string {
	if *l == "" {
		return string(LogLevelWarn)
	}
	return string(*l)
}

func (l *LogLevel) Set(value string) error {
	switch LogLevel(strings.ToLower(value)) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		*l = LogLevel(strings.ToLower(value))
		return nil
	default:
		return fmt.Errorf("invalid log level %q (want debug, info, warn or error)", value)
	}
}

func (l *LogLevel) Type() string {
	return "level"
}

func (l *LogLevel) SlogLevel() slog.Level {
	switch *l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
