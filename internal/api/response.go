package api

import (
	"encoding/json"
	"net/http"
)

// sendResponse is the body of every send-email response.
type sendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// respondJSON writes a JSON response with the given status code and data.
// If data is nil, only the status code and Content-Type header are written.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a {success:false,error} response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, sendResponse{Error: message})
}
