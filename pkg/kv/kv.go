// Package kv is a client for a remote key-value store reachable over HTTP.
//
// Values are opaque byte blobs addressed by key within an account/namespace
// pair. The wire surface is the Cloudflare Workers KV REST API; a local
// development server speaking the same surface can be targeted by setting
// Config.Local.
package kv

import (
	"encoding/json"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Base URLs for the two deployment targets.
const (
	DefaultBaseURL = "https://api.cloudflare.com/client/v4"
	LocalBaseURL   = "http://localhost:8787"
)

// Config carries the credentials and addressing for one namespace.
type Config struct {
	AccountID   string
	NamespaceID string
	APIToken    string

	// BaseURL overrides the API origin. Empty selects DefaultBaseURL, or
	// LocalBaseURL when Local is set.
	BaseURL string
	Local   bool
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AccountID, validation.Required),
		validation.Field(&c.NamespaceID, validation.Required),
		validation.Field(&c.APIToken, validation.Required),
	)
}

func (c Config) base() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	if c.Local {
		return LocalBaseURL
	}
	return DefaultBaseURL
}

// Endpoint returns the values endpoint for the configured namespace.
func (c Config) Endpoint() string {
	return fmt.Sprintf("%s/accounts/%s/storage/kv/namespaces/%s/values", c.base(), c.AccountID, c.NamespaceID)
}

// ListEndpoint returns the keys endpoint for the configured namespace.
func (c Config) ListEndpoint() string {
	return fmt.Sprintf("%s/accounts/%s/storage/kv/namespaces/%s/keys", c.base(), c.AccountID, c.NamespaceID)
}

// Pair is a key together with its stored value.
type Pair struct {
	Key   string
	Value []byte
}

// KeyInfo describes one key in a listing.
type KeyInfo struct {
	Name       string          `json:"name"`
	Expiration *int64          `json:"expiration,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// KeyPage is one page of a key listing.
type KeyPage struct {
	Keys         []KeyInfo `json:"keys"`
	ListComplete bool      `json:"list_complete"`
	Cursor       string    `json:"cursor,omitempty"`
}

// ListOptions narrow a List call. The zero value requests the first page
// with the server's default page size.
type ListOptions struct {
	Limit  int
	Cursor string
}

// PutOptions carry optional write attributes.
type PutOptions struct {
	// TTLSeconds expires the key this many seconds after the write. Zero
	// means no expiration.
	TTLSeconds uint64

	// Metadata is attached verbatim as the X-Kv-Metadata header.
	Metadata json.RawMessage
}
