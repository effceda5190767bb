package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/format"
	"github.com/starford/ansuz/pkg/jsonfile"
	"github.com/starford/ansuz/pkg/kv"
)

// exportPageSize is the listing page size used while walking keys for export.
const exportPageSize = 1000

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Batch operations",
		Commands: []*cli.Command{
			batchDeleteCommand(),
			batchImportCommand(),
			batchExportCommand(),
		},
	}
}

func batchDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete multiple keys",
		ArgsUsage: "<key>...",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			keys := cmd.Args().Slice()
			if len(keys) == 0 {
				return errors.New("at least one key is required")
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			if err := client.BatchDelete(ctx, keys); err != nil {
				return err
			}

			fmt.Println(format.Success("Batch delete successful", outputFormat(cmd)))
			return nil
		}),
	}
}

func batchImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Put multiple key-value pairs from a JSON or YAML file",
		ArgsUsage: "<file>",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("file is required")
			}

			entries, err := readBatchFile(path)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println(format.Value("No entries to import", outputFormat(cmd)))
				return nil
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(entries))
			for key := range entries {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			for _, key := range keys {
				if err := client.Put(ctx, key, []byte(entries[key])); err != nil {
					return fmt.Errorf("import %q: %w", key, err)
				}
			}

			fmt.Println(format.Success(
				fmt.Sprintf("Successfully imported %d entries", len(keys)), outputFormat(cmd)))
			return nil
		}),
	}
}

// readBatchFile parses a flat key -> value mapping from a .json, .yaml or
// .yml file.
func readBatchFile(path string) (map[string]string, error) {
	entries := make(map[string]string)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := jsonfile.Load(path, &entries); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported import format %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
	return entries, nil
}

func batchExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export keys and values to a JSON file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Only export keys with this prefix",
			},
		},
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("output file is required")
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			prefix := cmd.String("prefix")
			entries := make(map[string]string)

			pager := kv.NewPager(client, exportPageSize)
			for pager.HasMore() {
				names, err := pager.NextPage(ctx)
				if err != nil {
					return err
				}
				for _, name := range names {
					if prefix != "" && !strings.HasPrefix(name, prefix) {
						continue
					}
					pair, err := client.Get(ctx, name)
					if err != nil {
						return fmt.Errorf("export %q: %w", name, err)
					}
					if pair == nil {
						// Deleted between listing and fetch.
						continue
					}
					entries[name] = string(pair.Value)
				}
			}

			if err := jsonfile.Save(path, entries, 0o644); err != nil {
				return err
			}

			fmt.Println(format.Success(
				fmt.Sprintf("Exported %d entries to '%s'", len(entries), path), outputFormat(cmd)))
			return nil
		}),
	}
}
