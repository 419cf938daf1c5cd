package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/holdfast-dev/holdfast/config"
)

var (
	// Version is the version of the CLI
	Version = "unknown"

	// GitCommit is the commit that the CLI was built from
	GitCommit = "unknown"

	// BuildDate is the date the CLI was built
	BuildDate = "unknown"
)

type globalOptions struct {
	LogLevel LogLevel
	LogFile  string
	Config   string
}

func NewRootCmd() *cobra.Command {
	options := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "holdfast",
		Short: "Holdfast: deliver long-running idempotent requests, no matter what.",
		Long:  figure.NewColorFigure("holdfast", "standard", "blue", true).String(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(slog.New(slog.NewJSONHandler(setupLogSink(options, cmd.ErrOrStderr()), &slog.HandlerOptions{
				Level: options.LogLevel.SlogLevel(),
			})))
			return nil
		},
	}

	cmd.PersistentFlags().Var(&options.LogLevel, "log-level", "set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&options.LogFile, "log-file", "", "write logs to this file instead of stderr (rotated)")
	cmd.PersistentFlags().StringVar(&options.Config, "config", "", "config file (default ~/.holdfast/config.yaml)")

	cmd.AddCommand(NewCompleteCmd(options))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func setupLogSink(options *globalOptions, fallback io.Writer) io.Writer {
	if options.LogFile == "" {
		return fallback
	}

	return &lumberjack.Logger{
		Filename:   options.LogFile,
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}
}

func Execute() {
	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			sentry.Flush(2 * time.Second)
			fmt.Fprintf(os.Stderr, "Panic occurred: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if dsn := os.Getenv("HOLDFAST_SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize sentry: %s\n", err)
		}
	}

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		sentry.CaptureException(err)
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}

	sentry.Flush(2 * time.Second)
}

func loadConfig(options *globalOptions) (*config.Config, error) {
	path := options.Config
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	}
	return config.Load(path, explicit)
}
