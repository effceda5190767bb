package profile

import (
	"sort"
	"strings"
)

// envPrefix is scanned for profile definitions of the form
// ANSUZ_STORE_<NAME>_<FIELD>, e.g. ANSUZ_STORE_PROD_ACCOUNT_ID.
const envPrefix = "ANSUZ_STORE_"

// Each profile needs all three of these suffixes to be picked up.
const (
	envSuffixAccountID   = "_ACCOUNT_ID"
	envSuffixNamespaceID = "_NAMESPACE_ID"
	envSuffixAPIToken    = "_API_TOKEN"
)

// FromEnviron collects profiles defined in environ, a slice of KEY=VALUE
// entries as returned by os.Environ. Profile names are the first segment
// after the prefix, lowercased. Names missing any of the three credential
// variables are dropped.
func FromEnviron(environ []string) map[string]Profile {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		vars[key] = value
	}

	names := make(map[string]struct{})
	for key := range vars {
		rest, ok := strings.CutPrefix(key, envPrefix)
		if !ok {
			continue
		}
		name, _, ok := strings.Cut(rest, "_")
		if !ok || name == "" {
			continue
		}
		names[name] = struct{}{}
	}

	out := make(map[string]Profile)
	for name := range names {
		accountID, okAcc := vars[envPrefix+name+envSuffixAccountID]
		namespaceID, okNS := vars[envPrefix+name+envSuffixNamespaceID]
		apiToken, okTok := vars[envPrefix+name+envSuffixAPIToken]
		if !okAcc || !okNS || !okTok {
			continue
		}

		lower := strings.ToLower(name)
		out[lower] = Profile{
			Name:        lower,
			AccountID:   accountID,
			NamespaceID: namespaceID,
			APIToken:    apiToken,
		}
	}
	return out
}

// MergeEnviron overlays profiles found in environ onto the store, overwriting
// profiles with the same name. Returns the names of the merged profiles,
// sorted.
func (s *Store) MergeEnviron(environ []string) []string {
	merged := FromEnviron(environ)
	names := make([]string, 0, len(merged))
	for name, p := range merged {
		s.Storages[name] = p
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
