package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal/format"
	"github.com/starford/ansuz/internal/profile"
)

// profileRow is one profile in a structured listing. API tokens are never
// included in command output.
type profileRow struct {
	AccountID   string `json:"account_id" yaml:"account_id"`
	Active      bool   `json:"active" yaml:"active"`
	Name        string `json:"name" yaml:"name"`
	NamespaceID string `json:"namespace_id" yaml:"namespace_id"`
}

// profileDetails is a single profile in a structured dump, token omitted.
type profileDetails struct {
	AccountID   string `json:"account_id" yaml:"account_id"`
	Name        string `json:"name" yaml:"name"`
	NamespaceID string `json:"namespace_id" yaml:"namespace_id"`
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Storage profile management",
		Commands: []*cli.Command{
			profileAddCommand(),
			profileListCommand(),
			profileCurrentCommand(),
			profileSwitchCommand(),
			profileRemoveCommand(),
			profileRenameCommand(),
			profileShowCommand(),
			profileExportCommand(),
			profileImportCommand(),
			profileLoadEnvCommand(),
		},
	}
}

func profileAddCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a new storage profile",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "account-id",
				Aliases:  []string{"a"},
				Usage:    "Account ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "namespace-id",
				Aliases:  []string{"n"},
				Usage:    "Namespace ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "api-token",
				Aliases:  []string{"t"},
				Usage:    "API token",
				Required: true,
			},
		},
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return errors.New("storage name is required")
			}

			store, path, err := loadStore(cmd)
			if err != nil {
				return err
			}
			if err := store.Add(name, cmd.String("account-id"), cmd.String("namespace-id"), cmd.String("api-token")); err != nil {
				return err
			}
			if err := store.Save(path); err != nil {
				return err
			}

			fmt.Println(format.Success(fmt.Sprintf("Storage '%s' added", name), outputFormat(cmd)))
			return nil
		}),
	}
}

func profileListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all storage profiles",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			store, _, err := loadStore(cmd)
			if err != nil {
				return err
			}

			f := outputFormat(cmd)
			names := store.Names()
			if len(names) == 0 {
				fmt.Println(format.Value("No storages configured", f))
				return nil
			}

			switch f {
			case format.JSON, format.YAML:
				rows := make([]profileRow, 0, len(names))
				for _, name := range names {
					p, _ := store.Get(name)
					rows = append(rows, profileRow{
						AccountID:   p.AccountID,
						Active:      store.Active != nil && *store.Active == name,
						Name:        p.Name,
						NamespaceID: p.NamespaceID,
					})
				}
				s, err := format.Marshal(rows, f)
				if err != nil {
					return err
				}
				fmt.Println(s)
			default:
				fmt.Println("Available storages:")
				fmt.Println()
				for _, name := range names {
					p, _ := store.Get(name)
					marker := "  "
					if store.Active != nil && *store.Active == name {
						marker = "* "
					}
					fmt.Printf("%s%s  (account: %s, namespace: %s)\n", marker, name, p.AccountID, p.NamespaceID)
				}
			}
			return nil
		}),
	}
}

func profileCurrentCommand() *cli.Command {
	return &cli.Command{
		Name:  "current",
		Usage: "Show the active storage profile",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			store, _, err := loadStore(cmd)
			if err != nil {
				return err
			}

			p, ok := store.ActiveProfile()
			if !ok {
				return errors.New("no active storage configured")
			}

			switch f := outputFormat(cmd); f {
			case format.JSON, format.YAML:
				s, err := format.Marshal(profileDetails{
					AccountID:   p.AccountID,
					Name:        p.Name,
					NamespaceID: p.NamespaceID,
				}, f)
				if err != nil {
					return err
				}
				fmt.Println(s)
			default:
				fmt.Printf("Current storage: %s\n", p.Name)
				fmt.Printf("Account ID: %s\n", p.AccountID)
				fmt.Printf("Namespace ID: %s\n", p.NamespaceID)
			}
			return nil
		}),
	}
}

func profileSwitchCommand() *cli.Command {
	return &cli.Command{
		Name:      "switch",
		Usage:     "Switch to a different storage profile",
		ArgsUsage: "<name>",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return errors.New("storage name is required")
			}

			store, path, err := loadStore(cmd)
			if err != nil {
				return err
			}
			if err := store.SetActive(name); err != nil {
				return err
			}
			if err := store.Save(path); err != nil {
				return err
			}

			fmt.Println(format.Success(fmt.Sprintf("Switched to storage '%s'", name), outputFormat(cmd)))
			return nil
		}),
	}
}

func profileRemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove a storage profile",
		ArgsUsage: "<name>",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return errors.New("storage name is required")
			}

			store, path, err := loadStore(cmd)
			if err != nil {
				return err
			}
			if err := store.Remove(name); err != nil {
				return err
			}
			if err := store.Save(path); err != nil {
				return err
			}

			fmt.Println(format.Success(fmt.Sprintf("Storage '%s' removed", name), outputFormat(cmd)))
			return nil
		}),
	}
}

func profileRenameCommand() *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename a storage profile",
		ArgsUsage: "<old> <new>",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			oldName := cmd.Args().Get(0)
			newName := cmd.Args().Get(1)
			if oldName == "" || newName == "" {
				return errors.New("both the current and the new storage name are required")
			}

			store, path, err := loadStore(cmd)
			if err != nil {
				return err
			}
			if err := store.Rename(oldName, newName); err != nil {
				return err
			}
			if err := store.Save(path); err != nil {
				return err
			}

			fmt.Println(format.Success(
				fmt.Sprintf("Storage renamed from '%s' to '%s'", oldName, newName), outputFormat(cmd)))
			return nil
		}),
	}
}

func profileShowCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Show storage profile details",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Storage name (defaults to the active storage)",
			},
		},
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			store, _, err := loadStore(cmd)
			if err != nil {
				return err
			}

			var p profile.Profile
			if name := cmd.String("name"); name != "" {
				var ok bool
				if p, ok = store.Get(name); !ok {
					return fmt.Errorf("storage '%s' not found", name)
				}
			} else {
				var ok bool
				if p, ok = store.ActiveProfile(); !ok {
					return errors.New("no active storage configured")
				}
			}

			switch f := outputFormat(cmd); f {
			case format.JSON, format.YAML:
				s, err := format.Marshal(profileDetails{
					AccountID:   p.AccountID,
					Name:        p.Name,
					NamespaceID: p.NamespaceID,
				}, f)
				if err != nil {
					return err
				}
				fmt.Println(s)
			default:
				fmt.Printf("Storage: %s\n", p.Name)
				fmt.Printf("Account ID: %s\n", p.AccountID)
				fmt.Printf("Namespace ID: %s\n", p.NamespaceID)
			}
			return nil
		}),
	}
}

func profileExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export storage profiles as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Write the export to a file instead of stdout",
			},
		},
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			store, _, err := loadStore(cmd)
			if err != nil {
				return err
			}

			data, err := store.ExportJSON()
			if err != nil {
				return err
			}

			if path := cmd.String("file"); path != "" {
				// Exports carry API tokens, so they get the same
				// owner-only mode as the config file.
				if err := os.WriteFile(path, data, 0o600); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Println(format.Success(
					fmt.Sprintf("Storages exported to '%s'", path), outputFormat(cmd)))
				return nil
			}

			fmt.Println(string(data))
			return nil
		}),
	}
}

func profileImportCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import storage profiles from a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "File to import",
				Required: true,
			},
		},
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("file")
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}

			store, configFile, err := loadStore(cmd)
			if err != nil {
				return err
			}
			if err := store.ImportJSON(data); err != nil {
				return err
			}
			if err := store.Save(configFile); err != nil {
				return err
			}

			fmt.Println(format.Success(
				fmt.Sprintf("Storages imported from '%s'", path), outputFormat(cmd)))
			return nil
		}),
	}
}

func profileLoadEnvCommand() *cli.Command {
	return &cli.Command{
		Name:  "load-env",
		Usage: "Load storage profiles from environment variables",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			store, path, err := loadStore(cmd)
			if err != nil {
				return err
			}

			names := store.MergeEnviron(os.Environ())
			if err := store.Save(path); err != nil {
				return err
			}

			f := outputFormat(cmd)
			if len(names) == 0 {
				fmt.Println(format.Value("No storages found in environment variables", f))
				return nil
			}

			fmt.Println(format.Success(
				fmt.Sprintf("Loaded %d storage(ies) from environment variables", len(names)), f))
			for _, name := range names {
				fmt.Printf("  - %s\n", name)
			}
			return nil
		}),
	}
}
