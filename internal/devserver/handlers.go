package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	// maxValueBytes bounds a single stored value.
	maxValueBytes = 25 << 20
	// maxBulkBytes bounds a bulk delete request body.
	maxBulkBytes = 1 << 20

	defaultListLimit = 1000
	maxListLimit     = 1000
)

// Handler holds the key-value API route handlers.
type Handler struct {
	store *Store
}

// NewHandler creates a Handler backed by store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// keyFromRequest extracts the key from the wildcard URL parameter.
// Keys may contain slashes and URL-encoded characters.
func keyFromRequest(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// GetValue handles GET /values/{key}. The response body is the raw stored
// value.
func (h *Handler) GetValue(w http.ResponseWriter, r *http.Request) {
	key := keyFromRequest(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}

	entry, err := h.store.Get(key)
	if err != nil {
		slog.Error("Failed to get value", slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusNotFound, errorBody("key not found"))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(entry.Value)
}

// PutValue handles PUT /values/{key}. The request body is stored verbatim.
// An expiration_ttl query parameter sets the entry's time to live in
// seconds, and an X-Kv-Metadata header attaches a JSON metadata document.
func (h *Handler) PutValue(w http.ResponseWriter, r *http.Request) {
	key := keyFromRequest(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxValueBytes)
	value, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("value too large"))
		return
	}

	var ttl uint64
	if raw := r.URL.Query().Get("expiration_ttl"); raw != "" {
		ttl, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid expiration_ttl"))
			return
		}
	}

	var metadata json.RawMessage
	if raw := r.Header.Get("X-Kv-Metadata"); raw != "" {
		if !json.Valid([]byte(raw)) {
			writeJSON(w, http.StatusBadRequest, errorBody("metadata must be valid JSON"))
			return
		}
		metadata = json.RawMessage(raw)
	}

	if err := h.store.Put(key, value, ttl, metadata); err != nil {
		slog.Error("Failed to put value", slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	writeJSON(w, http.StatusOK, successBody())
}

// DeleteValue handles DELETE /values/{key}.
func (h *Handler) DeleteValue(w http.ResponseWriter, r *http.Request) {
	key := keyFromRequest(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}

	existed, err := h.store.Delete(key)
	if err != nil {
		slog.Error("Failed to delete value", slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if !existed {
		writeJSON(w, http.StatusNotFound, errorBody("key not found"))
		return
	}

	writeJSON(w, http.StatusOK, successBody())
}

// ListKeys handles GET /keys. It supports limit, cursor and prefix query
// parameters and responds with a result envelope.
func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultListLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid limit"))
			return
		}
		limit = n
		if limit > maxListLimit {
			limit = maxListLimit
		}
	}

	rows, next, err := h.store.ListKeys(q.Get("prefix"), q.Get("cursor"), limit)
	if err != nil {
		if errors.Is(err, errBadCursor) {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid cursor"))
			return
		}
		slog.Error("Failed to list keys", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	keys := make([]keyInfo, 0, len(rows))
	for _, row := range rows {
		info := keyInfo{Name: row.Name, Metadata: row.Metadata}
		if row.ExpiresAt > 0 {
			expiration := row.ExpiresAt
			info.Expiration = &expiration
		}
		keys = append(keys, info)
	}

	writeJSON(w, http.StatusOK, listResponse{
		Success: true,
		Result: keyPage{
			Keys:         keys,
			ListComplete: next == "",
			Cursor:       next,
		},
	})
}

// BulkDelete handles DELETE /values/bulk. The request body carries the keys
// to remove as {"keys": [...]}.
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBulkBytes)

	var req struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Keys) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("keys are required"))
		return
	}

	if err := h.store.DeleteMany(req.Keys); err != nil {
		slog.Error("Failed to bulk delete", slog.Int("keys", len(req.Keys)), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	writeJSON(w, http.StatusOK, successBody())
}
