package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"samilabs.app/pulse/common/logger"
	"samilabs.app/pulse/common/otel"
	"samilabs.app/pulse/core/config"
	"samilabs.app/pulse/internal/conversation"
	"samilabs.app/pulse/internal/service"
)

// app carries the factories the commands use, so tests can swap the
// network-facing parts.
type app struct {
	loadConfig    func() (config.Config, error)
	newAggregator func(config.Config) (service.Aggregator, error)
	newInvoker    func(config.LLMConfig) (conversation.Invoker, error)

	cfg       config.Config
	telemetry *otel.Telemetry
	verbose   bool
}

func defaultApp() *app {
	return &app{
		loadConfig: func() (config.Config, error) {
			return config.Load(config.ServiceTypeCLI)
		},
		newAggregator: func(cfg config.Config) (service.Aggregator, error) {
			return service.NewAggregator(cfg, nil)
		},
		newInvoker: service.NewInvoker,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pulse",
		Short:         "pulse - brand mention aggregation and reputation analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.telemetry.Shutdown(context.WithoutCancel(cmd.Context()))
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log pipeline progress to stderr")

	root.AddCommand(newSearchCmd(a), newAnalyzeCmd(a))
	return root
}

func (a *app) setup(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	a.telemetry, err = otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("initialize otel: %w", err)
	}

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	logger.SetupWithWriter(cfg, cmd.ErrOrStderr(), level)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(defaultApp()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
