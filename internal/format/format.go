// Package format renders command output as plain text, JSON or YAML.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the output rendering.
type Format int

const (
	Text Format = iota
	JSON
	YAML
)

// Parse maps a user-supplied name onto a Format, case-insensitively.
// "yml" is accepted for YAML. Unknown names fall back to Text.
func Parse(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return JSON
	case "yaml", "yml":
		return YAML
	default:
		return Text
	}
}

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	default:
		return "text"
	}
}

// Value renders a raw value: bare text, or a {"value": ...} wrapper in the
// structured formats.
func Value(text string, f Format) string {
	switch f {
	case JSON:
		return compactJSON(map[string]string{"value": text})
	case YAML:
		return marshalYAML(map[string]string{"value": text})
	default:
		return text
	}
}

type successBody struct {
	Message string `json:"message" yaml:"message"`
	Success bool   `json:"success" yaml:"success"`
}

type errorBody struct {
	Error   string `json:"error" yaml:"error"`
	Success bool   `json:"success" yaml:"success"`
}

// Success renders an operation confirmation.
func Success(message string, f Format) string {
	switch f {
	case JSON:
		return compactJSON(successBody{Message: message, Success: true})
	case YAML:
		return marshalYAML(successBody{Message: message, Success: true})
	default:
		return message
	}
}

// Error renders a failure message.
func Error(message string, f Format) string {
	switch f {
	case JSON:
		return compactJSON(errorBody{Error: message, Success: false})
	case YAML:
		return marshalYAML(errorBody{Error: message, Success: false})
	default:
		return "Error: " + message
	}
}

// Marshal renders v as a structured dump: indented JSON or YAML. Text
// callers render their own human output, so Text yields an empty string.
func Marshal(v any, f Format) (string, error) {
	switch f {
	case JSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("format: encode json: %w", err)
		}
		return strings.TrimRight(buf.String(), "\n"), nil
	case YAML:
		out, err := yaml.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("format: encode yaml: %w", err)
		}
		return string(out), nil
	default:
		return "", nil
	}
}

// Compact renders v as single-line JSON.
func Compact(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("format: encode json: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func compactJSON(v any) string {
	out, err := Compact(v)
	if err != nil {
		return ""
	}
	return out
}

func marshalYAML(v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return ""
	}
	return string(out)
}
