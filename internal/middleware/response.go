package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/mroshb/engage_app/pkg/errors"
	"github.com/mroshb/engage_app/pkg/logger"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// WriteJSON writes a successful envelope.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, Envelope{Success: true, Data: data})
}

// WriteError maps err to its HTTP status. Causes wrapped inside an
// AppError never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "code", code, "error", err)
	}
	write(w, status, Envelope{Success: false, Error: errors.MessageOf(err), Code: code})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}
