// internal/app/api/respond/respond.go
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/provision"
	"github.com/classdeck/classdeck/internal/app/store/docstore"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a one-line JSON error body.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, map[string]string{"error": msg})
}

// Fields writes a field-level validation failure.
func Fields(w http.ResponseWriter, fields []provision.FieldError) {
	JSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}

// Decode parses the request body into dst; a false return means the error
// response was already written.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// StoreError maps store and workflow errors onto HTTP responses. Anything
// unclassified is a 500 with a generic body; the detail goes to the log.
func StoreError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	var verr *provision.ValidationError
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.As(err, &verr):
		Fields(w, verr.Fields)
	case errors.Is(err, provision.ErrProviderUnavailable):
		Error(w, http.StatusServiceUnavailable, "identity provider unavailable, try again")
	default:
		log.Error(op, zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
