// Command evalctl drives the evaluation backend from a terminal: it runs the
// evaluation workflow end to end, browses and exports history, renders reports
// and manages teachers and students.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/evaluation-console/internal/config"
	"github.com/SAP-F-2025/evaluation-console/internal/gateway"
	"github.com/SAP-F-2025/evaluation-console/internal/report"
	"github.com/SAP-F-2025/evaluation-console/internal/utils"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	backendURL string
	timeout    time.Duration
	logLevel   string

	cfg       *config.Config
	logger    *slog.Logger
	client    *gateway.Client
	validator *validator.Validator
	renderer  *report.Renderer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "evalctl",
		Short: "Evaluate student answers against a model answer",
		Long: `evalctl talks to the evaluation backend directly.

Available commands:
  evaluate - run one evaluation from model answer to score
  history  - list, filter and export past evaluations
  report   - render the printable report of one evaluation
  extract  - print the text recognised in an answer file
  teachers - list, add and delete teachers
  students - list, add and delete students and show their statistics`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.backendURL, "backend", "", "Evaluation backend base URL (or set GATEWAY_BASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "Backend request timeout (or set GATEWAY_TIMEOUT)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (or set LOG_LEVEL; default warn)")

	rootCmd.AddCommand(newEvaluateCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newReportCmd(a))
	rootCmd.AddCommand(newExtractCmd(a))
	rootCmd.AddCommand(newTeachersCmd(a))
	rootCmd.AddCommand(newStudentsCmd(a))
	return rootCmd
}

// setup loads the environment configuration and lets flags override it.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if a.backendURL != "" {
		cfg.Gateway.BaseURL = a.backendURL
	}
	if a.timeout > 0 {
		cfg.Gateway.Timeout = a.timeout
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: a.level(cfg),
	}))
	a.client = gateway.NewClient(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: cfg.Gateway.Timeout,
	}, a.logger)
	a.validator = validator.New()
	a.renderer = report.NewRenderer(report.WithLocation(cfg.Location))
	return nil
}

// level picks the flag, then LOG_LEVEL, then warn so one-shot commands stay quiet.
func (a *app) level(cfg *config.Config) slog.Level {
	if a.logLevel != "" {
		return utils.ParseLevel(a.logLevel)
	}
	if _, ok := os.LookupEnv("LOG_LEVEL"); ok {
		return cfg.LogLevel
	}
	return slog.LevelWarn
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorMessage(err))
		os.Exit(1)
	}
}

// errorMessage prefers the backend's user-facing message over the wrapped chain.
func errorMessage(err error) string {
	var gwErr *gateway.GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Message
	}
	return err.Error()
}
