package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTransformers appends value transformers to the client's chain.
func WithTransformers(ts ...Transformer) Option {
	return func(c *Client) {
		c.transformers = append(c.transformers, ts...)
	}
}

// Client performs key-value operations against the remote store. Safe for
// concurrent use.
type Client struct {
	config       Config
	httpClient   *http.Client
	transformers []Transformer
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kv: invalid config: %w", err)
	}

	c := &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.config
}

// Get retrieves the value stored at key. A missing key yields (nil, nil).
func (c *Client) Get(ctx context.Context, key string) (*Pair, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.valueURL(key), nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		value, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("kv: read value for %q: %w", key, err)
		}
		value, err = c.postRetrieve(ctx, key, value)
		if err != nil {
			return nil, err
		}
		return &Pair{Key: key, Value: value}, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, newRequestError("get", key, resp)
	}
}

// Put stores value at key, replacing any existing value.
func (c *Client) Put(ctx context.Context, key string, value []byte) error {
	return c.PutWithOptions(ctx, key, value, PutOptions{})
}

// PutWithOptions stores value at key with optional expiry and metadata.
func (c *Client) PutWithOptions(ctx context.Context, key string, value []byte, opts PutOptions) error {
	value, err := c.preStore(ctx, key, value)
	if err != nil {
		return err
	}

	query := url.Values{}
	if opts.TTLSeconds > 0 {
		query.Set("expiration_ttl", strconv.FormatUint(opts.TTLSeconds, 10))
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.valueURL(key), query, bytes.NewReader(value))
	if err != nil {
		return err
	}
	if len(opts.Metadata) > 0 {
		req.Header.Set("X-Kv-Metadata", string(opts.Metadata))
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newRequestError("put", key, resp)
	}
	return nil
}

// Delete removes key. Deleting an absent key succeeds.
func (c *Client) Delete(ctx context.Context, key string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.valueURL(key), nil, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotFound:
		return nil
	default:
		return newRequestError("delete", key, resp)
	}
}

// List fetches one page of key names.
func (c *Client) List(ctx context.Context, opts ListOptions) (*KeyPage, error) {
	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.config.ListEndpoint(), query, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newRequestError("list", "", resp)
	}

	var envelope struct {
		Result *KeyPage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("kv: decode list response: %w", err)
	}
	if envelope.Result == nil {
		return nil, errors.New("kv: list response has no result")
	}
	if envelope.Result.Keys == nil {
		envelope.Result.Keys = []KeyInfo{}
	}
	return envelope.Result, nil
}

// BatchDelete removes all the given keys in a single request.
func (c *Client) BatchDelete(ctx context.Context, keys []string) error {
	payload, err := json.Marshal(map[string][]string{"keys": keys})
	if err != nil {
		return fmt.Errorf("kv: encode batch delete: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodDelete, c.config.Endpoint()+"/bulk", nil, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newRequestError("batch delete", "", resp)
	}
	return nil
}

func (c *Client) valueURL(key string) string {
	return c.config.Endpoint() + "/" + url.PathEscape(key)
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, query url.Values, body io.Reader) (*http.Request, error) {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("kv: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kv: %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}
