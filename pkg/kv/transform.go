package kv

import (
	"context"
	"fmt"
)

// Transformer rewrites values on their way to and from the store. A chain of
// transformers runs in installation order before a write and in reverse
// order after a read, so each transformer undoes its own encoding.
type Transformer interface {
	PreStore(ctx context.Context, key string, value []byte) ([]byte, error)
	PostRetrieve(ctx context.Context, key string, value []byte) ([]byte, error)
}

func (c *Client) preStore(ctx context.Context, key string, value []byte) ([]byte, error) {
	var err error
	for _, t := range c.transformers {
		value, err = t.PreStore(ctx, key, value)
		if err != nil {
			return nil, fmt.Errorf("kv: pre-store transform: %w", err)
		}
	}
	return value, nil
}

func (c *Client) postRetrieve(ctx context.Context, key string, value []byte) ([]byte, error) {
	var err error
	for i := len(c.transformers) - 1; i >= 0; i-- {
		value, err = c.transformers[i].PostRetrieve(ctx, key, value)
		if err != nil {
			return nil, fmt.Errorf("kv: post-retrieve transform: %w", err)
		}
	}
	return value, nil
}
