package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/go-drift/vio/pkg/config"
	"github.com/go-drift/vio/pkg/devtools"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the devtools bridge until interrupted",
		Long: `Run the devtools bridge and wait for a vio app to connect.

The bridge accepts one app on /ws, reports its state on /health and
exposes call metrics on /metrics. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := cfg.Logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd, cfg, logger)
		},
	}
}

// newServeApp assembles the fx application hosting the bridge.
func newServeApp(cfg *config.Resolved, logger *zap.Logger, bridge **devtools.Bridge) *fx.App {
	return fx.New(
		fx.NopLogger,
		fx.Supply(cfg, logger),
		devtools.Module(),
		fx.Populate(bridge),
	)
}

func serve(ctx context.Context, cmd *cobra.Command, cfg *config.Resolved, logger *zap.Logger) error {
	var bridge *devtools.Bridge
	app := newServeApp(cfg, logger, &bridge)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start bridge: %w", err)
	}
	cmd.Printf("devtools bridge listening on ws://%s%s\n", bridge.Addr(), devtools.SocketPath)

	<-ctx.Done()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancelStop()
	return app.Stop(stopCtx)
}
