package dispatch

import (
	"encoding/json"
	"net/http"
)

// writeJSON is the single success-path response writer; it never fails
// silently — an encode error here indicates a DTO bug, not a client error.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the {error, message, details} shape spec §4.7/§7 uses for
// every non-2xx response.
type errorBody struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, errCode, message string, details interface{}) {
	writeJSON(w, status, errorBody{Error: errCode, Message: message, Details: details})
}

// writeNotConfigured is the distinct 503 shape for "upstream not configured"
// (spec §7 kind 2), separate from a plain transient-failure 503.
func writeNotConfigured(w http.ResponseWriter, service string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":       "not_configured",
		"message":     service + " is not configured",
		"configured":  false,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", "no such route", nil)
}
