package devserver

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the development server configuration.
type Config struct {
	HTTP  HTTPConfig
	Store StoreConfig
	Auth  AuthConfig

	LogLevel slog.Level
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return c.Store.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig holds the SQLite database location. The special path
// ":memory:" keeps the whole store in memory.
type StoreConfig struct {
	Path string
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds the Bearer token clients must present. An empty token
// disables authentication, suitable for local development.
type AuthConfig struct {
	Token string
}

// NewDefaultConfig returns a Config matching the conventions the client
// uses for its local target: port 8787, in-memory store, no auth.
func NewDefaultConfig() *Config {
	return &Config{
		HTTP:     HTTPConfig{Port: 8787},
		Store:    StoreConfig{Path: ":memory:"},
		LogLevel: slog.LevelInfo,
	}
}
