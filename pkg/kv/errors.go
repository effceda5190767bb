package kv

import (
	"fmt"
	"io"
	"net/http"
)

// RequestError is returned when the remote store answers with an unexpected
// status code. Body carries the raw response body for diagnostics.
type RequestError struct {
	Op         string
	Key        string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("kv: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("kv: %s %q: status %d: %s", e.Op, e.Key, e.StatusCode, e.Body)
}

func newRequestError(op, key string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &RequestError{
		Op:         op,
		Key:        key,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
