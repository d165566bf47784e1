package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/cli/config"
	controller "github.com/m-mizutani/imgharvest/pkg/controller/http"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		sentryCfg   config.Sentry
		pipelineCfg pipelineConfig
	)

	flags := append(serverCfg.Flags(), sentryCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the web form and JSON API",
		Flags:   flags,
		Before:  beforeSubcommand,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			logger.Info("Starting imgharvest server",
				slog.String("addr", serverCfg.Addr),
				slog.Any("serpapi", pipelineCfg.serpapi),
			)

			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

			p, err := pipelineCfg.build(ctx, true)
			if err != nil {
				return goerr.Wrap(err, "failed to build pipeline")
			}
			defer p.Close()

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				p.Pipeline,
				controller.WithAddr(serverCfg.Addr),
				controller.WithStorage(p.storage),
				controller.WithMaxImages(min(serverCfg.MaxImages, p.MaxImages())),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
