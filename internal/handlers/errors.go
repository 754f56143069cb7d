package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"github.com/crucial707/geo-catalog/internal/repo"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

var validate = validator.New()

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// JSONValidationError sends a JSON error response with "error" and optional "fields" for field-level details.
// status is typically http.StatusBadRequest (400).
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	out := map[string]interface{}{"error": message}
	if len(fields) > 0 {
		out["fields"] = fields
	}
	json.NewEncoder(w).Encode(out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// decodeValid decodes the body into dst and runs struct validation. On failure it
// writes the 400 response and returns false.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			JSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return false
	}
	return validStruct(w, dst, nil)
}

// validStruct validates dst and writes a 400 listing every failed field, merged
// with any fields the caller already rejected while binding.
func validStruct(w http.ResponseWriter, dst any, fields map[string]string) bool {
	if fields == nil {
		fields = map[string]string{}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			JSONError(w, err.Error(), http.StatusBadRequest)
			return false
		}
		for _, fe := range verrs {
			if _, ok := fields[jsonName(fe.Field())]; !ok {
				fields[jsonName(fe.Field())] = fe.Tag()
			}
		}
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return false
	}
	return true
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// repoError maps a store error onto a response. notFound is the 404 message.
func repoError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var pqErr *pq.Error
	switch {
	case errors.Is(err, repo.ErrNotFound):
		JSONError(w, notFound, http.StatusNotFound)
	case errors.Is(err, repo.ErrNoActor):
		JSONError(w, "authentication required", http.StatusForbidden)
	case errors.As(err, &pqErr) && pqErr.Code == "23505":
		JSONError(w, "already exists", http.StatusConflict)
	case errors.As(err, &pqErr) && pqErr.Code == "23503":
		JSONError(w, "referenced record does not exist", http.StatusBadRequest)
	default:
		slog.ErrorContext(r.Context(), "store error", "method", r.Method, "path", r.URL.Path, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}
