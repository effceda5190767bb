package cli

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal/devserver"
)

func devCommand() *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Run a local key-value dev server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
				Value: 8787,
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite database path (\":memory:\" keeps data in memory)",
				Value: ":memory:",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Require this Bearer token on API requests",
			},
		},
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			cfg := devserver.NewDefaultConfig()
			cfg.HTTP.Port = int(cmd.Int("port"))
			cfg.Store.Path = cmd.String("db")
			cfg.Auth.Token = cmd.String("token")
			if cmd.Bool("debug") {
				cfg.LogLevel = slog.LevelDebug
			}

			return devserver.Run(ctx, devserver.WithConfig(cfg))
		}),
	}
}
