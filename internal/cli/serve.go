package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ic-ufrj/alumnic/internal/api"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the registration HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The server logs structured JSON regardless of CLI flags.
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}))
			slog.SetDefault(logger)

			router := api.NewRouter(api.RouterConfig{
				Logger:              logger,
				RegistrationService: app.Registration,
				MetricsGatherer:     app.Registry,
			})

			server := api.NewServer(router, cfg.Server, logger)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
				logger.Info("shutdown signal received")
				cancel()
			}()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return server.Shutdown(context.Background())
			}
		},
	}
}
