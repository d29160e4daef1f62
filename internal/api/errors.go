package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/alecgard/taskhub/internal/apperr"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

const internalErrorMessage = "Internal server error"

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorEnvelope{Message: message})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeMessage writes {"message": message} plus the given payload keys.
func writeMessage(w http.ResponseWriter, statusCode int, message string, kv ...any) {
	body := map[string]any{"message": message}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			body[k] = kv[i+1]
		}
	}
	writeJSON(w, statusCode, body)
}

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v interface{}) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}

// readBody decodes the request body or writes a 400 and reports false.
func readBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := readJSON(r, v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Request body is required")
		} else {
			writeError(w, http.StatusBadRequest, "Invalid request body")
		}
		return false
	}
	return true
}

// writeServiceError maps a service error onto the response. Errors outside
// the taxonomy and internal errors are logged and reported as 500 with the
// cause in the error field.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	recordErrorKind(r, apperr.Code(err))

	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
		)
		writeJSON(w, status, errorEnvelope{Message: internalErrorMessage, Error: err.Error()})
		return
	}
	writeError(w, status, apperr.From(err).Message)
}
