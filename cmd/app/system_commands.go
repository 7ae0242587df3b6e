package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/cardledger/cmd/app/commands"
	"github.com/allisson/cardledger/internal/app"
	"github.com/allisson/cardledger/internal/config"
)

// getSystemCommands returns the commands that run or prepare the service itself.
func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Serve the card API and, when METRICS_ENABLED, the metrics endpoint",
			Action: func(ctx context.Context, _ *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply pending users/cards schema migrations for DB_DRIVER",
			Action: func(_ context.Context, _ *cli.Command) error {
				cfg := config.Load()
				logger := app.NewContainer(cfg).Logger()
				return commands.RunMigrations(logger, cfg.DBDriver, cfg.DBConnectionString)
			},
		},
	}
}
