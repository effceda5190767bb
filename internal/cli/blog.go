package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal/format"
	"github.com/starford/ansuz/pkg/blog"
)

func blogCommand() *cli.Command {
	return &cli.Command{
		Name:  "blog",
		Usage: "Blog post management",
		Commands: []*cli.Command{
			blogPublishCommand(),
			blogListCommand(),
			blogGetCommand(),
			blogDeleteCommand(),
			blogPreviewCommand(),
			blogWatchCommand(),
		},
	}
}

func newPublisher(cmd *cli.Command) (*blog.Publisher, error) {
	client, err := newClient(cmd)
	if err != nil {
		return nil, err
	}
	return blog.NewPublisher(client), nil
}

func blogPublishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Publish a blog post from a markdown file",
		ArgsUsage: "<file.md>",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("markdown file is required")
			}

			pub, err := newPublisher(cmd)
			if err != nil {
				return err
			}
			if _, err := pub.PublishFile(ctx, path); err != nil {
				return err
			}

			fmt.Println(format.Success(
				fmt.Sprintf("Successfully published: %s", filepath.Base(path)), outputFormat(cmd)))
			return nil
		}),
	}
}

func blogListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all published blog posts",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			pub, err := newPublisher(cmd)
			if err != nil {
				return err
			}
			posts, err := pub.List(ctx)
			if err != nil {
				return err
			}

			f := outputFormat(cmd)
			if len(posts) == 0 {
				fmt.Println(format.Value("No blog posts found", f))
				return nil
			}

			switch f {
			case format.JSON, format.YAML:
				s, err := format.Marshal(posts, f)
				if err != nil {
					return err
				}
				fmt.Println(s)
			default:
				fmt.Printf("Found %d blog posts:\n\n", len(posts))
				for _, post := range posts {
					fmt.Printf("• %s\n", post.Title)
					fmt.Printf("  Slug: %s\n", post.Slug)
					fmt.Printf("  Date: %s\n", post.Date)
					fmt.Printf("  Author: %s\n", post.Author)
					fmt.Printf("  Tags: %s\n\n", strings.Join(post.Tags, ", "))
				}
			}
			return nil
		}),
	}
}

func blogGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch a blog post by slug",
		ArgsUsage: "<slug>",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			slug := cmd.Args().First()
			if slug == "" {
				return errors.New("slug is required")
			}

			pub, err := newPublisher(cmd)
			if err != nil {
				return err
			}
			post, err := pub.Get(ctx, slug)
			if err != nil {
				return err
			}
			if post == nil {
				return fmt.Errorf("post not found: %s", slug)
			}

			switch f := outputFormat(cmd); f {
			case format.JSON, format.YAML:
				s, err := format.Marshal(post, f)
				if err != nil {
					return err
				}
				fmt.Println(s)
			default:
				fmt.Printf("Title: %s\n", post.Title)
				fmt.Printf("Slug: %s\n", post.Slug)
				fmt.Printf("Date: %s\n", post.Date)
				fmt.Printf("Author: %s\n", post.Author)
				fmt.Printf("Description: %s\n", post.Description)
				if post.CoverImage != nil {
					fmt.Printf("Cover image: %s\n", *post.CoverImage)
				}
				fmt.Printf("Tags: %s\n\n", strings.Join(post.Tags, ", "))
				fmt.Println(post.Content)
			}
			return nil
		}),
	}
}

func blogDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a blog post by slug",
		ArgsUsage: "<slug>",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			slug := cmd.Args().First()
			if slug == "" {
				return errors.New("slug is required")
			}

			pub, err := newPublisher(cmd)
			if err != nil {
				return err
			}
			if err := pub.Delete(ctx, slug); err != nil {
				return err
			}

			fmt.Println(format.Success(
				fmt.Sprintf("Successfully deleted: %s", slug), outputFormat(cmd)))
			return nil
		}),
	}
}

func blogPreviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Validate a markdown file and render it as an HTML page",
		ArgsUsage: "<file.md>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the HTML to a file instead of stdout",
			},
		},
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("markdown file is required")
			}

			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			doc, err := blog.Parse(src)
			if err != nil {
				return err
			}
			post, err := doc.Post()
			if err != nil {
				return err
			}

			page, err := post.RenderPage()
			if err != nil {
				return err
			}

			if out := cmd.String("output"); out != "" {
				if err := os.WriteFile(out, page, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Println(format.Success(
					fmt.Sprintf("Preview written to '%s'", out), outputFormat(cmd)))
				return nil
			}

			fmt.Println(string(page))
			return nil
		}),
	}
}

func blogWatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch a directory and republish changed markdown files",
		ArgsUsage: "<dir>",
		Action: run(func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				return errors.New("directory is required")
			}

			pub, err := newPublisher(cmd)
			if err != nil {
				return err
			}

			watchCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", dir)
			return blog.Watch(watchCtx, pub, dir, slog.Default(), func(kind, path string) {
				switch kind {
				case "published":
					fmt.Printf("published %s\n", path)
				case "invalid":
					fmt.Printf("skipped invalid document: %s\n", path)
				}
			})
		}),
	}
}
