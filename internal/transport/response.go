package transport

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error body the front end consumes. The detail string
// is shown to the user verbatim, so it carries the localized message.
type ErrorResponse struct {
	Detail  string            `json:"detail"`
	Details map[string]string `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, detail string, details map[string]string) {
	WriteJSON(w, status, ErrorResponse{
		Detail:  detail,
		Details: details,
	})
}
