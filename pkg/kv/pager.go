package kv

import "context"

// Pager walks a key listing page by page, following the cursor until the
// server reports the listing complete.
type Pager struct {
	client    *Client
	limit     int
	cursor    string
	exhausted bool
}

// NewPager returns a pager fetching up to limit keys per page.
func NewPager(client *Client, limit int) *Pager {
	return &Pager{client: client, limit: limit}
}

// NextPage fetches the next page of key names. It returns nil once the
// listing is exhausted.
func (p *Pager) NextPage(ctx context.Context) ([]string, error) {
	if p.exhausted {
		return nil, nil
	}

	page, err := p.client.List(ctx, ListOptions{Limit: p.limit, Cursor: p.cursor})
	if err != nil {
		return nil, err
	}

	// An empty page terminates the walk even if the server forgot to set
	// list_complete.
	if page.ListComplete || len(page.Keys) == 0 {
		p.exhausted = true
	}
	p.cursor = page.Cursor

	if len(page.Keys) == 0 {
		return nil, nil
	}
	names := make([]string, len(page.Keys))
	for i, k := range page.Keys {
		names[i] = k.Name
	}
	return names, nil
}

// HasMore reports whether another page may be available.
func (p *Pager) HasMore() bool {
	return !p.exhausted
}
