package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the same {"error", "message"} body the handlers use.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}
