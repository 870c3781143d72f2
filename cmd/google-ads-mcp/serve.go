package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ptmyrd/google-ads-mcp/internal/config"
	"github.com/ptmyrd/google-ads-mcp/internal/gateway"
	"github.com/ptmyrd/google-ads-mcp/internal/googleads"
	"github.com/ptmyrd/google-ads-mcp/internal/telemetry"
	"github.com/ptmyrd/google-ads-mcp/internal/tools"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP gateway",
		Long:  "Load credentials from the environment, register the Google Ads tools, and serve the gateway until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Port = port
			}

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := telemetry.NewLogger(os.Stdout, level)
			metrics := telemetry.NewMetrics()

			factory := googleads.NewRESTFactory(cfg.Credentials)
			svc := tools.NewService(factory,
				tools.WithLogger(logger),
				tools.WithMetrics(metrics),
			)

			srv := gateway.NewServer(svc.Handler(),
				gateway.WithLogger(logger),
				gateway.WithMetrics(metrics),
				gateway.WithToken(config.BearerToken),
				gateway.WithServerName(tools.ServerName),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				err := srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Port))
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides PORT)")

	return cmd
}
