// Package api holds the wire types and response helpers of the HTTP API.
package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/doubletgeekedup/int-dashboard-sub000/pkg/errors"
)

// Success writes data as JSON with the given status. A nil interface
// writes no body; a typed nil pointer encodes as null.
func Success(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, data)
}

// Error writes an ErrorResponse.
func Error(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// FromError maps err onto its status and writes only its public message,
// so wrapped causes never reach the client.
func FromError(w http.ResponseWriter, err error) int {
	status := apperrors.StatusCode(err)
	Error(w, status, apperrors.Message(err))
	return status
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
