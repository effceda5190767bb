package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/starford/ansuz/pkg/kv"
)

// Keys used in the remote namespace.
const (
	// ListKey holds the JSON array of PostMeta summaries.
	ListKey = "_blog_list"
	// PostKeyPrefix precedes the slug in each record key.
	PostKeyPrefix = "post:"
)

// PostKey returns the record key for slug.
func PostKey(slug string) string {
	return PostKeyPrefix + slug
}

// Store is the key-value surface the publisher needs. A missing key must
// come back as (nil, nil) from Get. *kv.Client satisfies the interface.
type Store interface {
	Get(ctx context.Context, key string) (*kv.Pair, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Publisher keeps individual post records and the list index consistent.
// The list index is maintained read-modify-write with no locking; two
// publishers racing on the same namespace can lose one side's update.
type Publisher struct {
	store Store
}

// NewPublisher returns a publisher writing through store.
func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// PublishFile reads, parses, validates and publishes the markdown file at
// path, returning the published post.
func (p *Publisher) PublishFile(ctx context.Context, path string) (*Post, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blog: read %s: %w", path, err)
	}
	doc, err := Parse(src)
	if err != nil {
		return nil, err
	}
	post, err := doc.Post()
	if err != nil {
		return nil, err
	}
	if err := p.Publish(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Publish writes the full record under its post key (last write wins) and
// folds its summary into the list index.
func (p *Publisher) Publish(ctx context.Context, post *Post) error {
	post.Tags = nonNilSlice(post.Tags)

	record, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("blog: encode post %s: %w", post.Slug, err)
	}
	if err := p.store.Put(ctx, PostKey(post.Slug), record); err != nil {
		return err
	}
	return p.updateList(ctx, post.Meta())
}

// Delete removes the record and drops its entry from the list index. A
// record that is already absent still succeeds; the list is written back
// only when it actually shrank.
func (p *Publisher) Delete(ctx context.Context, slug string) error {
	if err := p.store.Delete(ctx, PostKey(slug)); err != nil {
		return err
	}

	list, err := p.readList(ctx)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, m := range list {
		if m.Slug != slug {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	return p.writeList(ctx, kept)
}

// List returns the list index, or an empty slice when it does not exist.
func (p *Publisher) List(ctx context.Context) ([]PostMeta, error) {
	return p.readList(ctx)
}

// Get returns the full record for slug, or nil when absent.
func (p *Publisher) Get(ctx context.Context, slug string) (*Post, error) {
	pair, err := p.store.Get(ctx, PostKey(slug))
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, nil
	}
	var post Post
	if err := json.Unmarshal(pair.Value, &post); err != nil {
		return nil, fmt.Errorf("blog: decode post %s: %w", slug, err)
	}
	return &post, nil
}

func (p *Publisher) updateList(ctx context.Context, meta PostMeta) error {
	list, err := p.readList(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range list {
		if list[i].Slug == meta.Slug {
			list[i] = meta
			replaced = true
			break
		}
	}
	if !replaced {
		list = append([]PostMeta{meta}, list...)
	}

	// Stable sort keeps the relative order of equal dates.
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date > list[j].Date
	})

	return p.writeList(ctx, list)
}

func (p *Publisher) readList(ctx context.Context) ([]PostMeta, error) {
	pair, err := p.store.Get(ctx, ListKey)
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return []PostMeta{}, nil
	}
	var list []PostMeta
	if err := json.Unmarshal(pair.Value, &list); err != nil {
		return nil, fmt.Errorf("blog: decode list index: %w", err)
	}
	return list, nil
}

func (p *Publisher) writeList(ctx context.Context, list []PostMeta) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("blog: encode list index: %w", err)
	}
	return p.store.Put(ctx, ListKey, data)
}
