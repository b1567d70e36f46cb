// Package httpx provides the JSON response envelope shared by every handler.
package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// Envelope is the uniform response body. Error responses carry error/message,
// success responses carry data.
type Envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"statusCode"`
	Path       string `json:"path,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// JSON writes a success envelope with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	write(w, Envelope{
		Success:    true,
		Data:       data,
		StatusCode: status,
		Path:       requestPath(r),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}, status)
}

// Error writes an error envelope with the given status code.
func Error(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	write(w, Envelope{
		Success:    false,
		Error:      title,
		Message:    message,
		StatusCode: status,
		Path:       requestPath(r),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}, status)
}

// DecodeJSON decodes the JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

func write(w http.ResponseWriter, envelope Envelope, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}

func requestPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.Path
}
