package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/holdfast-dev/holdfast/config"
	"github.com/holdfast-dev/holdfast/pkg/fail"
	"github.com/holdfast-dev/holdfast/pkg/terminal"
	"github.com/holdfast-dev/holdfast/resilience"
	"github.com/holdfast-dev/holdfast/transport"
)

type completeOptions struct {
	model          string
	baseURL        string
	apiKey         string
	provider       string
	system         string
	attemptTimeout string
	maxWait        string
	idempotencyKey string
	output         string
	maxTokens      int64
	quiet          bool
}

func NewCompleteCmd(global *globalOptions) *cobra.Command {
	options := &completeOptions{}

	cmd := &cobra.Command{
		Use:   "complete [flags] PROMPT...",
		Short: "Send a completion request and wait for it, however long it takes",
		Long: `Send a completion request through the batch proxy and wait for the
result. The request carries a stable idempotency key, so dropped
connections, timeouts and transient server errors are retried without
creating duplicate jobs. Expect waits of minutes to hours when the
backend batches work.

Examples:
  # Ask for a completion and wait up to the default 24h budget
  holdfast complete "Write a short poem about batch processing."

  # A different model and a two-day budget
  holdfast complete --model o1 --max-wait 2d "Prove the Riemann hypothesis."

  # Resume waiting for a job from an interrupted run
  holdfast complete --idempotency-key 6f1c... "Write a short poem about batch processing."`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(cmd, options, global, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&options.model, "model", "", "model to request (default from config)")
	cmd.Flags().StringVar(&options.baseURL, "base-url", "", "base URL of the batch proxy")
	cmd.Flags().StringVar(&options.apiKey, "api-key", "", "API key (the proxy accepts any value)")
	cmd.Flags().StringVar(&options.provider, "provider", "", "wire protocol to speak: openai or anthropic")
	cmd.Flags().StringVar(&options.system, "system", "", "optional system prompt")
	cmd.Flags().StringVar(&options.attemptTimeout, "attempt-timeout", "", "timeout per attempt (default 1h)")
	cmd.Flags().StringVar(&options.maxWait, "max-wait", "", "total wall-clock budget, accepts day suffix (default 24h)")
	cmd.Flags().StringVar(&options.idempotencyKey, "idempotency-key", "", "reuse a key to resume waiting for an earlier job")
	cmd.Flags().StringVar(&options.output, "output", "markdown", "output format: markdown, text or json")
	cmd.Flags().Int64Var(&options.maxTokens, "max-tokens", 0, "cap on response tokens (0 leaves it to the backend)")
	cmd.Flags().BoolVar(&options.quiet, "quiet", false, "suppress progress output, print only the result")

	return cmd
}

func runComplete(cmd *cobra.Command, options *completeOptions, global *globalOptions, prompt string) error {
	cfg, err := loadConfig(global)
	if err != nil {
		path := global.Config
		if path == "" {
			path = config.DefaultPath()
		}
		return fail.NewConfigError(path, err)
	}
	if err := applyOverrides(cfg, options); err != nil {
		return err
	}

	tr, err := newTransport(cfg)
	if err != nil {
		return err
	}

	key := options.idempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	stderr := cmd.ErrOrStderr()
	if !options.quiet {
		fmt.Fprintf(stderr, "%s Request ID: %s\n", terminal.ActionSymbol, key)
		fmt.Fprintf(stderr, "%s This may take a while depending on batch processing; retries are automatic.\n", terminal.InfoSymbol)
	}

	reporter := newProgressReporter(stderr, options.quiet)
	driver, err := resilience.NewDriver(tr,
		resilience.WithRetryConfig(cfg.RetryConfig()),
		resilience.WithRetryHooks(
			resilience.NewSlogHook(nil),
			reporter,
		),
	)
	if err != nil {
		return err
	}

	req := &transport.Request{
		Model:     cfg.Model,
		System:    options.system,
		Messages:  []transport.Message{{Role: transport.RoleUser, Content: prompt}},
		MaxTokens: options.maxTokens,
	}

	reporter.Start()
	resp, err := driver.Run(cmd.Context(), req, key)
	reporter.Finish(err)
	if err != nil {
		return presentFailure(err, key)
	}

	return printResponse(cmd, options, resp)
}

func applyOverrides(cfg *config.Config, options *completeOptions) error {
	if options.model != "" {
		cfg.Model = options.model
	}
	if options.baseURL != "" {
		cfg.BaseURL = options.baseURL
	}
	if options.apiKey != "" {
		cfg.APIKey = options.apiKey
	}
	if options.provider != "" {
		cfg.Provider = options.provider
	}

	for _, override := range []struct {
		value  string
		target *config.Duration
	}{
		{options.attemptTimeout, &cfg.AttemptTimeout},
		{options.maxWait, &cfg.MaxWait},
	} {
		if override.value == "" {
			continue
		}
		parsed, err := config.ParseDuration(override.value)
		if err != nil {
			return err
		}
		*override.target = config.Duration(parsed)
	}

	return cfg.Validate()
}

func newTransport(cfg *config.Config) (transport.Transport, error) {
	switch cfg.Provider {
	case "anthropic":
		return transport.NewAnthropicTransport(cfg.APIKey, transport.WithBaseURL(cfg.BaseURL))
	default:
		return transport.NewOpenAITransport(cfg.APIKey, transport.WithBaseURL(cfg.BaseURL))
	}
}

func presentFailure(err error, key string) error {
	var rejected *resilience.Rejected
	if errors.As(err, &rejected) {
		return fail.NewRejectedError(rejected.StatusCode, rejected)
	}

	var deadline *resilience.DeadlineExceeded
	if errors.As(err, &deadline) {
		return fail.NewDeadlineError(deadline.MaxWait, deadline.Attempts, key)
	}

	var cancelled *resilience.Cancelled
	if errors.As(err, &cancelled) {
		return fmt.Errorf("%s interrupted after %d attempts; rerun with --idempotency-key %s to resume",
			terminal.WarningSymbol, cancelled.Attempts, key)
	}

	return err
}

func printResponse(cmd *cobra.Command, options *completeOptions, resp *transport.Response) error {
	stdout := cmd.OutOrStdout()

	switch options.output {
	case "json":
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	case "text":
		fmt.Fprintln(stdout, resp.Content)
	case "markdown":
		fmt.Fprintln(stdout, terminal.RenderMarkdown(resp.Content, terminalWidth()))
	default:
		return fmt.Errorf("unknown output format %q (want markdown, text or json)", options.output)
	}

	if !options.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%s model %s, %s tokens\n",
			terminal.Dim("·"), resp.Model, humanize.Comma(resp.Usage.TotalTokens))
	}

	return nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || width > 120 {
		return 100
	}
	return width
}
