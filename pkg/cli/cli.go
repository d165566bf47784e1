package cli

import (
	"context"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/cli/config"
	"github.com/m-mizutani/imgharvest/pkg/domain/types"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var loggerCfg config.Logger
	var configFile string
	var logger *slog.Logger

	// .env is optional; values already in the environment win
	_ = godotenv.Load()

	flags := append(loggerCfg.Flags(), &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "TOML config file; keys are flag names",
		Destination: &configFile,
		Sources:     cli.EnvVars("IMGHARVEST_CONFIG"),
	})

	app := &cli.Command{
		Name:    types.ServiceName,
		Usage:   "Search images and download them in bulk",
		Version: types.Version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := applyConfigFile(ctx, c); err != nil {
				return nil, err
			}

			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = logging.With(ctx, logger)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdDownload(),
			cmdBatch(),
			cmdClear(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}

// applyConfigFile fills unset flags of c from the --config file, if any
func applyConfigFile(ctx context.Context, c *cli.Command) error {
	path := c.String("config")
	if path == "" {
		return nil
	}

	values, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if err := config.ApplyFile(ctx, c, values); err != nil {
		return goerr.Wrap(err, "failed to apply config file", goerr.V("path", path))
	}
	return nil
}

// beforeSubcommand applies the config file to subcommand flags
func beforeSubcommand(ctx context.Context, c *cli.Command) (context.Context, error) {
	if err := applyConfigFile(ctx, c); err != nil {
		return nil, err
	}
	return ctx, nil
}
