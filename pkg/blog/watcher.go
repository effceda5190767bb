package blog

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/checksum"
)

// EventCallback is called after the watcher handles a markdown file.
// kind is one of "published", "skipped", "invalid".
type EventCallback func(kind string, path string)

// debounceDelay batches the event bursts editors emit on save.
const debounceDelay = 300 * time.Millisecond

// Watch starts an fsnotify watcher on root and publishes changed markdown
// files until ctx is cancelled. It calls cb (if non-nil) after handling
// each file.
//
// New directories created at runtime are automatically added to the watch
// list. Files whose content is unchanged since the last publish are
// skipped. Removing a file never deletes the remote post; only an explicit
// delete does that.
func Watch(ctx context.Context, pub *Publisher, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("blog: start watcher: %w", err)
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return fmt.Errorf("blog: watch %s: %w", root, err)
	}

	logger.Info("watch: started", slog.String("root", root))

	seen := make(map[string]checksum.Digest)
	dirty := make(map[string]struct{})

	// flushTimer debounces publishes across event bursts.
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	markDirty := func(path string) {
		dirty[path] = struct{}{}
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounceDelay)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounceDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watch: stopped")
			return nil

		case <-flushCh:
			for path := range dirty {
				delete(dirty, path)
				publishDirty(ctx, pub, path, seen, logger, cb)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watch: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watch: watching new dir", slog.String("path", ev.Name))
					}
					markDirtyDir(ev.Name, markDirty)
					continue
				}
			}

			// Only process .md files from here on.
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				markDirty(ev.Name)

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Forget the digest so a re-created file publishes again.
				delete(seen, ev.Name)
				delete(dirty, ev.Name)
				logger.Debug("watch: file gone", slog.String("path", ev.Name))
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch: error", slog.String("error", watchErr.Error()))
		}
	}
}

func publishDirty(ctx context.Context, pub *Publisher, path string, seen map[string]checksum.Digest, logger *slog.Logger, cb EventCallback) {
	src, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("watch: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	sum := checksum.Sum(src)
	if prev, ok := seen[path]; ok && prev == sum {
		logger.Debug("watch: unchanged", slog.String("path", path))
		if cb != nil {
			cb("skipped", path)
		}
		return
	}

	doc, err := Parse(src)
	if err != nil {
		logger.Warn("watch: parse failed", slog.String("path", path), slog.String("error", err.Error()))
		if cb != nil {
			cb("invalid", path)
		}
		return
	}
	post, err := doc.Post()
	if err != nil {
		logger.Warn("watch: validation failed", slog.String("path", path), slog.String("error", err.Error()))
		if cb != nil {
			cb("invalid", path)
		}
		return
	}

	if err := pub.Publish(ctx, post); err != nil {
		// Digest stays unset so the next change retries the publish.
		logger.Warn("watch: publish failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	seen[path] = sum

	logger.Info("watch: published", slog.String("path", path), slog.String("slug", post.Slug))
	if cb != nil {
		cb("published", path)
	}
}

// markDirtyDir marks any .md files in a newly created directory.
func markDirtyDir(dir string, mark func(string)) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		mark(path)
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
