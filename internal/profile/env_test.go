package profile

import (
	"testing"
)

func TestFromEnvironCompleteTriple(t *testing.T) {
	environ := []string{
		"ANSUZ_STORE_PROD_ACCOUNT_ID=acc123",
		"ANSUZ_STORE_PROD_NAMESPACE_ID=ns456",
		"ANSUZ_STORE_PROD_API_TOKEN=tok789",
	}

	got := FromEnviron(environ)
	if len(got) != 1 {
		t.Fatalf("len(profiles) = %d, want 1", len(got))
	}
	p, ok := got["prod"]
	if !ok {
		t.Fatalf("profiles = %v, want lowercase key prod", got)
	}
	if p.Name != "prod" || p.AccountID != "acc123" || p.NamespaceID != "ns456" || p.APIToken != "tok789" {
		t.Errorf("profile = %+v", p)
	}
}

func TestFromEnvironPartialTripleDropped(t *testing.T) {
	environ := []string{
		"ANSUZ_STORE_PROD_ACCOUNT_ID=acc123",
		"ANSUZ_STORE_PROD_NAMESPACE_ID=ns456",
	}

	if got := FromEnviron(environ); len(got) != 0 {
		t.Errorf("profiles = %v, want none for incomplete triple", got)
	}
}

func TestFromEnvironMultipleProfiles(t *testing.T) {
	environ := []string{
		"ANSUZ_STORE_PROD_ACCOUNT_ID=a1",
		"ANSUZ_STORE_PROD_NAMESPACE_ID=n1",
		"ANSUZ_STORE_PROD_API_TOKEN=t1",
		"ANSUZ_STORE_STAGING_ACCOUNT_ID=a2",
		"ANSUZ_STORE_STAGING_NAMESPACE_ID=n2",
		"ANSUZ_STORE_STAGING_API_TOKEN=t2",
	}

	got := FromEnviron(environ)
	if len(got) != 2 {
		t.Fatalf("len(profiles) = %d, want 2", len(got))
	}
	if got["prod"].AccountID != "a1" || got["staging"].AccountID != "a2" {
		t.Errorf("profiles = %v", got)
	}
}

func TestFromEnvironIgnoresUnrelatedVars(t *testing.T) {
	environ := []string{
		"PATH=/usr/bin",
		"ANSUZ_FORMAT=json",
		"ANSUZ_STORE_PROD",
		"ANSUZ_STORE_=empty",
	}

	if got := FromEnviron(environ); len(got) != 0 {
		t.Errorf("profiles = %v, want none", got)
	}
}

func TestFromEnvironValueWithEquals(t *testing.T) {
	environ := []string{
		"ANSUZ_STORE_PROD_ACCOUNT_ID=acc",
		"ANSUZ_STORE_PROD_NAMESPACE_ID=ns",
		"ANSUZ_STORE_PROD_API_TOKEN=tok=with=equals",
	}

	got := FromEnviron(environ)
	if got["prod"].APIToken != "tok=with=equals" {
		t.Errorf("token = %q, want raw value preserved", got["prod"].APIToken)
	}
}

func TestMergeEnvironOverwritesExisting(t *testing.T) {
	s := NewStore()
	_ = s.Add("prod", "old-acc", "old-ns", "old-tok")

	environ := []string{
		"ANSUZ_STORE_PROD_ACCOUNT_ID=new-acc",
		"ANSUZ_STORE_PROD_NAMESPACE_ID=new-ns",
		"ANSUZ_STORE_PROD_API_TOKEN=new-tok",
	}

	names := s.MergeEnviron(environ)
	if len(names) != 1 || names[0] != "prod" {
		t.Fatalf("merged names = %v, want [prod]", names)
	}
	p, _ := s.Get("prod")
	if p.AccountID != "new-acc" {
		t.Errorf("account = %q, want new-acc", p.AccountID)
	}
	// Merging never touches the active marker.
	if s.Active == nil || *s.Active != "prod" {
		t.Errorf("active = %v, want prod", s.Active)
	}
}

func TestMergeEnvironAddsNew(t *testing.T) {
	s := NewStore()
	_ = s.Add("prod", "a", "n", "t")

	environ := []string{
		"ANSUZ_STORE_STAGING_ACCOUNT_ID=a2",
		"ANSUZ_STORE_STAGING_NAMESPACE_ID=n2",
		"ANSUZ_STORE_STAGING_API_TOKEN=t2",
	}

	names := s.MergeEnviron(environ)
	if len(names) != 1 || names[0] != "staging" {
		t.Fatalf("merged names = %v, want [staging]", names)
	}
	if len(s.Storages) != 2 {
		t.Errorf("len(storages) = %d, want 2", len(s.Storages))
	}
	if *s.Active != "prod" {
		t.Errorf("active = %q, want prod", *s.Active)
	}
}
