package blog

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Kind discriminates frontmatter values.
type Kind int

const (
	KindString Kind = iota
	KindStringList
	KindOther
)

// Value is one frontmatter value. Str is set for KindString, List for
// KindStringList. Anything else (numbers, maps, mixed lists) is KindOther.
type Value struct {
	Kind Kind
	Str  string
	List []string
}

// Metadata is the parsed frontmatter mapping. Keys keep document order;
// duplicate keys keep the last value.
type Metadata struct {
	keys   []string
	values map[string]Value
}

// NewMetadata returns an empty metadata mapping.
func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string]Value)}
}

func (m *Metadata) set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key.
func (m *Metadata) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in document order.
func (m *Metadata) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Metadata) Len() int {
	return len(m.keys)
}

// ValidationError reports a frontmatter field that does not conform to the
// record schema.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("blog: field %q: %s", e.Field, e.Reason)
}

// GetString returns the string stored under key. Absent or non-string
// values fail with a ValidationError.
func (m *Metadata) GetString(key string) (string, error) {
	v, ok := m.Get(key)
	if !ok || v.Kind != KindString {
		return "", &ValidationError{Field: key, Reason: "missing or not a string"}
	}
	return v.Str, nil
}

// GetOptionalString returns the string stored under key. Missing keys,
// non-string values and empty strings all report absent.
func (m *Metadata) GetOptionalString(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok || v.Kind != KindString || v.Str == "" {
		return "", false
	}
	return v.Str, true
}

// GetStringList returns the list stored under key. An absent key yields an
// empty list; any present value that is not a list of strings fails.
func (m *Metadata) GetStringList(key string) ([]string, error) {
	v, ok := m.Get(key)
	if !ok {
		return []string{}, nil
	}
	if v.Kind != KindStringList {
		return nil, &ValidationError{Field: key, Reason: "not a list of strings"}
	}
	out := make([]string, len(v.List))
	copy(out, v.List)
	return out, nil
}

// requiredFields are checked in this order; the first miss is reported.
var requiredFields = []string{"slug", "title", "description", "author", "date"}

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slugRe = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Validate checks the metadata against the record schema: all required
// fields present, date in YYYY-MM-DD form, slug lowercase alphanumerics and
// hyphens. The first failing check is reported.
func (m *Metadata) Validate() error {
	for _, field := range requiredFields {
		if _, ok := m.Get(field); !ok {
			return &ValidationError{Field: field, Reason: "required"}
		}
	}

	date, err := m.GetString("date")
	if err != nil {
		return err
	}
	if err := validation.Validate(date, validation.Match(dateRe)); err != nil {
		return &ValidationError{Field: "date", Reason: "must be in YYYY-MM-DD format"}
	}

	slug, err := m.GetString("slug")
	if err != nil {
		return err
	}
	if err := validation.Validate(slug, validation.Match(slugRe)); err != nil {
		return &ValidationError{Field: "slug", Reason: "must contain only lowercase letters, numbers, and hyphens"}
	}
	return nil
}
