package web

import (
	"encoding/json"
	"log"
	"net/http"
)

// errorBody is the JSON error shape shared by every route.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("web: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	if status >= http.StatusInternalServerError {
		log.Printf("web: %s: %s", message, details)
	}
	writeJSON(w, status, errorBody{Error: message, Details: details})
}
