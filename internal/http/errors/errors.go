package errors

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// JSON writes a JSON response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Client writes a client-facing error with the given status.
func Client(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{Error: message})
}

// Validation writes a 400 carrying per-field rejection reasons.
func Validation(w http.ResponseWriter, message string, fields map[string]string) {
	JSON(w, http.StatusBadRequest, errorBody{Error: message, Fields: fields})
}

// Internal logs the underlying error with the request ID and returns a
// generic 500 to the client.
func Internal(w http.ResponseWriter, r *http.Request, err error, message string) {
	LogError(r, message, err)
	Client(w, http.StatusInternalServerError, "internal server error")
}

func LogError(r *http.Request, message string, err error) {
	if requestID := middleware.GetReqID(r.Context()); requestID != "" {
		log.Printf("[ERROR] RequestID=%s: %s: %v", requestID, message, err)
		return
	}
	log.Printf("[ERROR] %s: %v", message, err)
}

func LogWarn(r *http.Request, message string, err error) {
	if requestID := middleware.GetReqID(r.Context()); requestID != "" {
		log.Printf("[WARN] RequestID=%s: %s: %v", requestID, message, err)
		return
	}
	log.Printf("[WARN] %s: %v", message, err)
}

func LogInfo(r *http.Request, message string) {
	if requestID := middleware.GetReqID(r.Context()); requestID != "" {
		log.Printf("[INFO] RequestID=%s: %s", requestID, message)
		return
	}
	log.Printf("[INFO] %s", message)
}
