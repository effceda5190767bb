package blog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/testutil"
)

type watchEvent struct {
	kind string
	path string
}

// startWatch runs Watch in the background and returns the event stream.
func startWatch(t *testing.T, pub *Publisher, root string) <-chan watchEvent {
	t.Helper()

	events := make(chan watchEvent, 64)
	cb := func(kind, path string) {
		events <- watchEvent{kind: kind, path: path}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		done <- Watch(ctx, pub, root, logger, cb)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Watch: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Watch did not stop")
		}
	})

	// Give the watcher time to register the directory tree.
	time.Sleep(500 * time.Millisecond)
	return events
}

func waitEvent(t *testing.T, events <-chan watchEvent, kind string) watchEvent {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", kind)
		}
	}
}

func TestWatchPublishesChangedFile(t *testing.T) {
	pub, store := newTestPublisher()
	dir := t.TempDir()
	events := startWatch(t, pub, dir)

	path := testutil.WriteFile(t, dir, "post.md", sampleMarkdown)

	ev := waitEvent(t, events, "published")
	if ev.path != path {
		t.Errorf("event path = %q, want %q", ev.path, path)
	}
	if pair, _ := store.Get(context.Background(), "post:my-post"); pair == nil {
		t.Error("post not stored after publish event")
	}
}

func TestWatchSkipsUnchangedContent(t *testing.T) {
	pub, _ := newTestPublisher()
	dir := t.TempDir()
	events := startWatch(t, pub, dir)

	testutil.WriteFile(t, dir, "post.md", sampleMarkdown)
	waitEvent(t, events, "published")

	// Rewriting identical bytes must not republish.
	testutil.WriteFile(t, dir, "post.md", sampleMarkdown)
	waitEvent(t, events, "skipped")
}

func TestWatchReportsInvalidDocument(t *testing.T) {
	pub, store := newTestPublisher()
	dir := t.TempDir()
	events := startWatch(t, pub, dir)

	testutil.WriteFile(t, dir, "broken.md", "no frontmatter at all")
	waitEvent(t, events, "invalid")

	if store.Len() != 0 {
		t.Error("invalid document reached the store")
	}
}

func TestWatchIgnoresOtherExtensions(t *testing.T) {
	pub, store := newTestPublisher()
	dir := t.TempDir()
	events := startWatch(t, pub, dir)

	testutil.WriteFile(t, dir, "notes.txt", sampleMarkdown)

	select {
	case ev := <-events:
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(1 * time.Second):
	}
	if store.Len() != 0 {
		t.Error("non-markdown file reached the store")
	}
}

func TestWatchPicksUpNewDirectories(t *testing.T) {
	pub, store := newTestPublisher()
	dir := t.TempDir()
	events := startWatch(t, pub, dir)

	sub := filepath.Join(dir, "drafts")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Let the watcher pick up the new directory before writing into it.
	time.Sleep(500 * time.Millisecond)

	testutil.WriteFile(t, dir, "drafts/post.md", minimalMarkdown)
	waitEvent(t, events, "published")

	if pair, _ := store.Get(context.Background(), "post:minimal"); pair == nil {
		t.Error("post from new directory not stored")
	}
}
