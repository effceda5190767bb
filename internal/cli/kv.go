package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal/format"
	"github.com/starford/ansuz/pkg/kv"
)

// pairOutput is the structured rendering of a fetched key-value pair.
type pairOutput struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// listOutput is the structured rendering of a key listing.
type listOutput struct {
	Cursor       *string  `json:"cursor" yaml:"cursor"`
	Keys         []string `json:"keys" yaml:"keys"`
	ListComplete bool     `json:"list_complete" yaml:"list_complete"`
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get a value by key",
		ArgsUsage: "<key>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "pretty",
				Aliases: []string{"p"},
				Usage:   "Pretty print JSON output",
			},
		},
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			key := cmd.Args().First()
			if key == "" {
				return errors.New("key is required")
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			pair, err := client.Get(ctx, key)
			if err != nil {
				return err
			}
			if pair == nil {
				return fmt.Errorf("key not found: %s", key)
			}

			out, err := renderPair(pair, outputFormat(cmd), cmd.Bool("pretty"))
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		}),
	}
}

func renderPair(pair *kv.Pair, f format.Format, pretty bool) (string, error) {
	out := pairOutput{Key: pair.Key, Value: string(pair.Value)}
	switch f {
	case format.JSON:
		if pretty {
			return format.Marshal(out, format.JSON)
		}
		return format.Compact(out)
	case format.YAML:
		s, err := format.Marshal(out, format.YAML)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(s, "\n"), nil
	default:
		return string(pair.Value), nil
	}
}

func putCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "Put a value with a key",
		ArgsUsage: "<key>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "value",
				Aliases: []string{"v"},
				Usage:   "Value to store",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Read the value from a file",
			},
			&cli.IntFlag{
				Name:  "ttl",
				Usage: "TTL in seconds",
			},
			&cli.StringFlag{
				Name:  "metadata",
				Usage: "Metadata as JSON",
			},
		},
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			key := cmd.Args().First()
			if key == "" {
				return errors.New("key is required")
			}

			var value []byte
			switch {
			case cmd.IsSet("file"):
				data, err := os.ReadFile(cmd.String("file"))
				if err != nil {
					return fmt.Errorf("read value file: %w", err)
				}
				value = data
			case cmd.IsSet("value"):
				value = []byte(cmd.String("value"))
			default:
				return errors.New("either --value or --file must be provided")
			}

			ttl := cmd.Int("ttl")
			if ttl < 0 {
				return errors.New("--ttl must be a positive number of seconds")
			}
			metadata := cmd.String("metadata")
			if metadata != "" && !json.Valid([]byte(metadata)) {
				return errors.New("--metadata must be valid JSON")
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			if ttl > 0 || metadata != "" {
				opts := kv.PutOptions{TTLSeconds: uint64(ttl)}
				if metadata != "" {
					opts.Metadata = json.RawMessage(metadata)
				}
				err = client.PutWithOptions(ctx, key, value, opts)
			} else {
				err = client.Put(ctx, key, value)
			}
			if err != nil {
				return err
			}

			fmt.Println(format.Success(fmt.Sprintf("Successfully put key: %s", key), outputFormat(cmd)))
			return nil
		}),
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a key",
		ArgsUsage: "<key>",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			key := cmd.Args().First()
			if key == "" {
				return errors.New("key is required")
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			if err := client.Delete(ctx, key); err != nil {
				return err
			}

			fmt.Println(format.Success(fmt.Sprintf("Successfully deleted key: %s", key), outputFormat(cmd)))
			return nil
		}),
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List keys",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of keys to return per page",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  "cursor",
				Usage: "Pagination cursor",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Walk every page and list all keys",
			},
		},
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			limit := int(cmd.Int("limit"))
			if limit < 1 {
				return errors.New("--limit must be at least 1")
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			var out listOutput
			if cmd.Bool("all") {
				pager := kv.NewPager(client, limit)
				names := []string{}
				for pager.HasMore() {
					page, err := pager.NextPage(ctx)
					if err != nil {
						return err
					}
					names = append(names, page...)
				}
				out = listOutput{Keys: names, ListComplete: true}
			} else {
				page, err := client.List(ctx, kv.ListOptions{
					Limit:  limit,
					Cursor: cmd.String("cursor"),
				})
				if err != nil {
					return err
				}
				names := make([]string, 0, len(page.Keys))
				for _, k := range page.Keys {
					names = append(names, k.Name)
				}
				out = listOutput{Keys: names, ListComplete: page.ListComplete}
				if page.Cursor != "" {
					cursor := page.Cursor
					out.Cursor = &cursor
				}
			}

			switch f := outputFormat(cmd); f {
			case format.JSON, format.YAML:
				s, err := format.Marshal(out, f)
				if err != nil {
					return err
				}
				fmt.Println(s)
			default:
				for _, name := range out.Keys {
					fmt.Println(name)
				}
			}
			return nil
		}),
	}
}
