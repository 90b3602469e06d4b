package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iota-uz/itam/internal/server"
	"github.com/iota-uz/itam/pkg/logging"
	"github.com/iota-uz/itam/pkg/metrics"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.conf.Unload()
			conf := rt.conf

			if conf.OpenTelemetry.Enabled {
				cleanup := logging.SetupTracing(context.Background(), conf.OpenTelemetry.ServiceName, conf.OpenTelemetry.TempoURL)
				defer cleanup()
				rt.logger.Info("OpenTelemetry tracing enabled, exporting to " + conf.OpenTelemetry.TempoURL)
			}
			if conf.Prometheus.Enabled {
				rt.app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
			}

			serverInstance, err := server.Default(&server.DefaultOptions{
				Logger:        rt.logger,
				Configuration: conf,
				Application:   rt.app,
			})
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("create server: %w", err))
			}
			rt.logger.Infof("Listening on: %s", conf.SocketAddress)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := serverInstance.Start(ctx, conf.SocketAddress); err != nil {
				return withCode(exitBackend, fmt.Errorf("start server: %w", err))
			}
			rt.logger.Info("Server stopped")
			return nil
		},
	}
}
