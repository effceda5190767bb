package devserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

const apiPrefix = "/accounts/acct/storage/kv/namespaces/ns"

func newTestRouter(t *testing.T, token string) (http.Handler, *Store) {
	t.Helper()

	store, err := OpenStore(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return NewRouter(store, token), store
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPutThenGetValue(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, http.MethodPut, apiPrefix+"/values/greeting", "hello", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d: %s", w.Code, http.StatusOK, w.Body)
	}
	if !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("PUT body = %q, want success envelope", w.Body)
	}

	w = doRequest(t, router, http.MethodGet, apiPrefix+"/values/greeting", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "hello" {
		t.Errorf("GET body = %q, want %q", got, "hello")
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("Content-Type = %q, want application/octet-stream", ct)
	}
}

func TestGetValueNotFound(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, http.MethodGet, apiPrefix+"/values/ghost", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if !strings.Contains(w.Body.String(), "key not found") {
		t.Errorf("body = %q, want key not found error", w.Body)
	}
}

func TestDeleteValue(t *testing.T) {
	router, _ := newTestRouter(t, "")

	doRequest(t, router, http.MethodPut, apiPrefix+"/values/doomed", "v", nil)

	w := doRequest(t, router, http.MethodDelete, apiPrefix+"/values/doomed", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d, want %d", w.Code, http.StatusOK)
	}

	w = doRequest(t, router, http.MethodDelete, apiPrefix+"/values/doomed", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestPutValueWithTTL(t *testing.T) {
	router, store := newTestRouter(t, "")

	w := doRequest(t, router, http.MethodPut, apiPrefix+"/values/temp?expiration_ttl=3600", "v", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body)
	}

	entry, err := store.Get("temp")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry == nil || entry.ExpiresAt == 0 {
		t.Errorf("entry = %+v, want expiry set", entry)
	}
}

func TestPutValueInvalidTTL(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, http.MethodPut, apiPrefix+"/values/temp?expiration_ttl=soon", "v", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestPutValueInvalidMetadata(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, http.MethodPut, apiPrefix+"/values/key", "v",
		map[string]string{"X-Kv-Metadata": "{not json"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "metadata") {
		t.Errorf("body = %q, want metadata error", w.Body)
	}
}

func TestListKeysEnvelope(t *testing.T) {
	router, _ := newTestRouter(t, "")

	doRequest(t, router, http.MethodPut, apiPrefix+"/values/alpha", "1", nil)
	doRequest(t, router, http.MethodPut, apiPrefix+"/values/beta?expiration_ttl=3600", "2",
		map[string]string{"X-Kv-Metadata": `{"env":"prod"}`})

	w := doRequest(t, router, http.MethodGet, apiPrefix+"/keys", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body)
	}

	var resp listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if len(resp.Result.Keys) != 2 {
		t.Fatalf("listed %d keys, want 2", len(resp.Result.Keys))
	}
	if !resp.Result.ListComplete {
		t.Error("list_complete = false, want true")
	}
	if resp.Result.Keys[0].Name != "alpha" || resp.Result.Keys[1].Name != "beta" {
		t.Errorf("keys = %+v, want alpha then beta", resp.Result.Keys)
	}
	if resp.Result.Keys[1].Expiration == nil {
		t.Error("beta expiration missing")
	}
	if got := string(resp.Result.Keys[1].Metadata); got != `{"env":"prod"}` {
		t.Errorf("beta metadata = %q, want %q", got, `{"env":"prod"}`)
	}
}

func TestListKeysPaginated(t *testing.T) {
	router, _ := newTestRouter(t, "")

	for _, key := range []string{"a", "b", "c"} {
		doRequest(t, router, http.MethodPut, apiPrefix+"/values/"+key, "v", nil)
	}

	w := doRequest(t, router, http.MethodGet, apiPrefix+"/keys?limit=2", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var first listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode first page: %v", err)
	}
	if len(first.Result.Keys) != 2 || first.Result.ListComplete || first.Result.Cursor == "" {
		t.Fatalf("first page = %+v, want 2 keys with cursor", first.Result)
	}

	w = doRequest(t, router, http.MethodGet, apiPrefix+"/keys?limit=2&cursor="+first.Result.Cursor, "", nil)
	var second listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode second page: %v", err)
	}
	if len(second.Result.Keys) != 1 || !second.Result.ListComplete {
		t.Fatalf("second page = %+v, want final key", second.Result)
	}
	if second.Result.Keys[0].Name != "c" {
		t.Errorf("second page key = %q, want c", second.Result.Keys[0].Name)
	}
}

func TestListKeysInvalidLimit(t *testing.T) {
	router, _ := newTestRouter(t, "")

	for _, query := range []string{"limit=0", "limit=-1", "limit=ten"} {
		w := doRequest(t, router, http.MethodGet, apiPrefix+"/keys?"+query, "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", query, w.Code, http.StatusBadRequest)
		}
	}
}

func TestListKeysInvalidCursor(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, http.MethodGet, apiPrefix+"/keys?cursor=!!!", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestBulkDelete(t *testing.T) {
	router, store := newTestRouter(t, "")

	for _, key := range []string{"a", "b", "c"} {
		doRequest(t, router, http.MethodPut, apiPrefix+"/values/"+key, "v", nil)
	}

	w := doRequest(t, router, http.MethodDelete, apiPrefix+"/values/bulk", `{"keys":["a","b"]}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body)
	}

	for _, key := range []string{"a", "b"} {
		entry, err := store.Get(key)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", key, err)
		}
		if entry != nil {
			t.Errorf("key %q still present", key)
		}
	}
	entry, err := store.Get("c")
	if err != nil {
		t.Fatalf("Get(c) error = %v", err)
	}
	if entry == nil {
		t.Error("key c removed, want it kept")
	}
}

func TestBulkDeleteRejectsEmptyKeys(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, http.MethodDelete, apiPrefix+"/values/bulk", `{"keys":[]}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestBulkDeleteRejectsBadJSON(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, http.MethodDelete, apiPrefix+"/values/bulk", `{oops`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestEncodedKeyRoundtrip(t *testing.T) {
	router, store := newTestRouter(t, "")

	w := doRequest(t, router, http.MethodPut, apiPrefix+"/values/posts%2F2025%20draft", "x", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d: %s", w.Code, http.StatusOK, w.Body)
	}

	entry, err := store.Get("posts/2025 draft")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry == nil {
		t.Fatal("decoded key not stored")
	}

	w = doRequest(t, router, http.MethodGet, apiPrefix+"/values/posts%2F2025%20draft", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "x" {
		t.Errorf("GET body = %q, want %q", got, "x")
	}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	router, _ := newTestRouter(t, "secret")

	w := doRequest(t, router, http.MethodGet, apiPrefix+"/values/key", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(w.Body.String(), "unauthorized") {
		t.Errorf("body = %q, want unauthorized error", w.Body)
	}
}

func TestAuthRejectsWrongToken(t *testing.T) {
	router, _ := newTestRouter(t, "secret")

	w := doRequest(t, router, http.MethodGet, apiPrefix+"/values/key", "",
		map[string]string{"Authorization": "Bearer wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthAcceptsValidToken(t *testing.T) {
	router, _ := newTestRouter(t, "secret")

	w := doRequest(t, router, http.MethodGet, apiPrefix+"/values/missing", "",
		map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d (request must reach the handler)", w.Code, http.StatusNotFound)
	}
}

func TestAuthDisabledWithEmptyToken(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, http.MethodGet, apiPrefix+"/values/missing", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d (auth must be bypassed)", w.Code, http.StatusNotFound)
	}
}
