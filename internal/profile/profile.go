// Package profile manages named connection profiles for remote key-value
// namespaces, persisted as a single JSON config file.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/pkg/jsonfile"
)

// Profile holds the credentials for one named remote namespace.
type Profile struct {
	Name        string `json:"name"`
	AccountID   string `json:"account_id"`
	NamespaceID string `json:"namespace_id"`
	APIToken    string `json:"api_token"`
}

// Validate checks that every credential field is set.
func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.AccountID, validation.Required),
		validation.Field(&p.NamespaceID, validation.Required),
		validation.Field(&p.APIToken, validation.Required),
	)
}

// Export is the wire format for profile export and import.
type Export struct {
	Storages map[string]Profile `json:"storages"`
	Active   *string            `json:"active_storage"`
}

// Store is the persisted profile configuration. The legacy single-profile
// fields are kept so configs written by earlier releases still load; they are
// migrated to a "default" profile on first read.
type Store struct {
	Storages map[string]Profile `json:"storages"`
	Active   *string            `json:"active_storage"`

	// Legacy single-profile fields.
	AccountID   string `json:"account_id,omitempty"`
	NamespaceID string `json:"namespace_id,omitempty"`
	APIToken    string `json:"api_token,omitempty"`
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{Storages: make(map[string]Profile)}
}

// DefaultPath returns the default config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("profile: resolve config dir: %w", err)
	}
	return filepath.Join(dir, "ansuz", "config.json"), nil
}

// Load reads the store from path. A missing file yields an empty store, and a
// file that cannot be parsed is treated as empty rather than failing the whole
// command. When the file is in the legacy single-profile format it is migrated
// to a "default" profile and saved back immediately.
func Load(path string) (*Store, error) {
	s := NewStore()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile: read config: %w", err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return NewStore(), nil
	}
	if s.Storages == nil {
		s.Storages = make(map[string]Profile)
	}

	if s.migrateLegacy() {
		if err := s.Save(path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// migrateLegacy converts a complete legacy credential triple into a profile
// named "default" and clears the legacy fields. Partial triples are left in
// place untouched. Reports whether a migration happened.
func (s *Store) migrateLegacy() bool {
	if len(s.Storages) > 0 {
		return false
	}
	if s.AccountID == "" || s.NamespaceID == "" || s.APIToken == "" {
		return false
	}

	name := "default"
	s.Storages[name] = Profile{
		Name:        name,
		AccountID:   s.AccountID,
		NamespaceID: s.NamespaceID,
		APIToken:    s.APIToken,
	}
	s.Active = &name
	s.AccountID = ""
	s.NamespaceID = ""
	s.APIToken = ""
	return true
}

// Save writes the store to path with owner-only permissions.
func (s *Store) Save(path string) error {
	if err := jsonfile.Save(path, s, 0o600); err != nil {
		return fmt.Errorf("profile: save config: %w", err)
	}
	return nil
}

// Add inserts or replaces a profile. The first profile added to a store with
// no active profile becomes active.
func (s *Store) Add(name, accountID, namespaceID, apiToken string) error {
	p := Profile{
		Name:        name,
		AccountID:   accountID,
		NamespaceID: namespaceID,
		APIToken:    apiToken,
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("profile: add %q: %w", name, err)
	}
	s.Storages[name] = p
	if s.Active == nil {
		s.Active = &name
	}
	return nil
}

// Get returns the profile with the given name.
func (s *Store) Get(name string) (Profile, bool) {
	p, ok := s.Storages[name]
	return p, ok
}

// ActiveProfile returns the currently active profile, if any.
func (s *Store) ActiveProfile() (Profile, bool) {
	if s.Active == nil {
		return Profile{}, false
	}
	p, ok := s.Storages[*s.Active]
	return p, ok
}

// SetActive marks an existing profile as active.
func (s *Store) SetActive(name string) error {
	if _, ok := s.Storages[name]; !ok {
		return fmt.Errorf("profile %q: %w", name, apperr.ErrNotFound)
	}
	s.Active = &name
	return nil
}

// Remove deletes a profile. When the active profile is removed, another
// remaining profile (if any) becomes active.
func (s *Store) Remove(name string) error {
	if _, ok := s.Storages[name]; !ok {
		return fmt.Errorf("profile %q: %w", name, apperr.ErrNotFound)
	}
	delete(s.Storages, name)

	if s.Active != nil && *s.Active == name {
		s.Active = nil
		for k := range s.Storages {
			next := k
			s.Active = &next
			break
		}
	}
	return nil
}

// Rename moves a profile to a new name, overwriting any profile already
// stored under it, and re-points the active marker when needed.
func (s *Store) Rename(oldName, newName string) error {
	p, ok := s.Storages[oldName]
	if !ok {
		return fmt.Errorf("profile %q: %w", oldName, apperr.ErrNotFound)
	}
	delete(s.Storages, oldName)
	p.Name = newName
	s.Storages[newName] = p

	if s.Active != nil && *s.Active == oldName {
		s.Active = &newName
	}
	return nil
}

// Names returns all profile names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.Storages))
	for name := range s.Storages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExportJSON serializes the profiles and active marker for transfer between
// machines. Legacy fields are not included.
func (s *Store) ExportJSON() ([]byte, error) {
	out := Export{Storages: s.Storages, Active: s.Active}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("profile: export: %w", err)
	}
	return data, nil
}

// ImportJSON replaces the store's profiles and active marker with the
// exported set. No merging is performed.
func (s *Store) ImportJSON(data []byte) error {
	var in Export
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("profile: import: %w", err)
	}
	if in.Storages == nil {
		in.Storages = make(map[string]Profile)
	}
	s.Storages = in.Storages
	s.Active = in.Active
	return nil
}
