package devserver

import "encoding/json"

type keyInfo struct {
	Name       string          `json:"name"`
	Expiration *int64          `json:"expiration,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

type keyPage struct {
	Keys         []keyInfo `json:"keys"`
	ListComplete bool      `json:"list_complete"`
	Cursor       string    `json:"cursor,omitempty"`
}

type listResponse struct {
	Success bool    `json:"success"`
	Result  keyPage `json:"result"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func successBody() successResponse {
	return successResponse{Success: true}
}

type errResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Success: false, Error: msg}
}
