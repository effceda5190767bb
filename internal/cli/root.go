// Package cli assembles the ansuz command tree: raw key-value operations,
// batch transfers, profile management, blog publishing and the local dev
// server.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/format"
	"github.com/starford/ansuz/internal/profile"
	"github.com/starford/ansuz/pkg/kv"
)

// New builds the root ansuz command.
func New() *cli.Command {
	return &cli.Command{
		Name:  "ansuz",
		Usage: "A general-purpose CLI for a remote key-value store",
		Commands: []*cli.Command{
			getCommand(),
			putCommand(),
			deleteCommand(),
			listCommand(),
			batchCommand(),
			profileCommand(),
			blogCommand(),
			devCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the config file",
				Sources: cli.EnvVars("ANSUZ_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, json, yaml)",
				Value:   "text",
				Sources: cli.EnvVars("ANSUZ_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "local",
				Aliases: []string{"l"},
				Usage:   "Talk to a local dev server instead of the remote store",
			},
			&cli.StringFlag{
				Name:    "account-id",
				Usage:   "Account ID for the remote store",
				Sources: cli.EnvVars("ANSUZ_ACCOUNT_ID"),
			},
			&cli.StringFlag{
				Name:    "namespace-id",
				Usage:   "Namespace ID for the remote store",
				Sources: cli.EnvVars("ANSUZ_NAMESPACE_ID"),
			},
			&cli.StringFlag{
				Name:    "api-token",
				Usage:   "API token for authentication",
				Sources: cli.EnvVars("ANSUZ_API_TOKEN"),
			},
		},
	}
}

// run wraps a command action: it installs logging and renders any failure
// through the output formatter before exiting non-zero.
func run(action func(ctx context.Context, cmd *cli.Command) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		initLogging(cmd)
		if err := action(ctx, cmd); err != nil {
			fmt.Fprintln(os.Stderr, format.Error(err.Error(), outputFormat(cmd)))
			return cli.Exit("", 1)
		}
		return nil
	}
}

func initLogging(cmd *cli.Command) {
	level := slog.LevelInfo
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func outputFormat(cmd *cli.Command) format.Format {
	return format.Parse(cmd.String("format"))
}

// configPath resolves the profile store location: the --config flag when
// given, else the per-user default.
func configPath(cmd *cli.Command) (string, error) {
	if path := cmd.String("config"); path != "" {
		return path, nil
	}
	return profile.DefaultPath()
}

// loadStore loads the profile store, applying any pending legacy migration,
// and returns it together with the path it came from.
func loadStore(cmd *cli.Command) (*profile.Store, string, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, "", err
	}
	store, err := profile.Load(path)
	if err != nil {
		return nil, "", err
	}
	return store, path, nil
}

// resolveConfig picks the credentials for a command. Explicit overrides are
// applied to the legacy fields first; after that the active profile wins,
// then a complete legacy triple.
func resolveConfig(store *profile.Store, accountID, namespaceID, apiToken string, local bool) (kv.Config, error) {
	if accountID != "" {
		store.AccountID = accountID
	}
	if namespaceID != "" {
		store.NamespaceID = namespaceID
	}
	if apiToken != "" {
		store.APIToken = apiToken
	}

	cfg := kv.Config{Local: local}
	if p, ok := store.ActiveProfile(); ok {
		cfg.AccountID = p.AccountID
		cfg.NamespaceID = p.NamespaceID
		cfg.APIToken = p.APIToken
		return cfg, nil
	}
	if store.AccountID != "" && store.NamespaceID != "" && store.APIToken != "" {
		cfg.AccountID = store.AccountID
		cfg.NamespaceID = store.NamespaceID
		cfg.APIToken = store.APIToken
		return cfg, nil
	}
	return kv.Config{}, fmt.Errorf("%w; add one with: ansuz profile add <name> --account-id <ID> --namespace-id <ID> --api-token <TOKEN>", apperr.ErrNoCredentials)
}

// newClient resolves credentials and constructs the remote store client.
func newClient(cmd *cli.Command) (*kv.Client, error) {
	store, _, err := loadStore(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := resolveConfig(store,
		cmd.String("account-id"), cmd.String("namespace-id"), cmd.String("api-token"),
		cmd.Bool("local"))
	if err != nil {
		return nil, err
	}
	return kv.NewClient(cfg)
}
