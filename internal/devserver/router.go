package devserver

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router exposing the key-value wire surface. The
// account and namespace path segments are accepted for client compatibility
// but not interpreted; the server always serves its single local namespace.
func NewRouter(store *Store, token string) chi.Router {
	h := NewHandler(store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(token))

	r.Route("/accounts/{account}/storage/kv/namespaces/{namespace}", func(r chi.Router) {
		r.Get("/keys", h.ListKeys)

		// The static bulk route must win over the value wildcard.
		r.Delete("/values/bulk", h.BulkDelete)

		r.Get("/values/*", h.GetValue)
		r.Put("/values/*", h.PutValue)
		r.Delete("/values/*", h.DeleteValue)
	})

	return r
}
