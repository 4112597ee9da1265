package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError renders the API error envelope. Handlers use the same shape.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"kind": kind, "message": message},
	})
}
