package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/geo-catalog/internal/auth"
	"github.com/crucial707/geo-catalog/internal/metrics"
)

// Problem is the body returned when authentication fails.
type Problem struct {
	Status   int    `json:"status"`
	Title    string `json:"title"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// WriteProblem sends p as application/problem+json.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	json.NewEncoder(w).Encode(p)
}

// CurrentUser resolves the caller's identity from the Authorization header and
// stores it on the request context. Requests without a bearer credential pass
// through as anonymous; a bearer credential that fails verification is rejected
// with 403 and never reaches the handler.
func CurrentUser(v *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Authenticate(r.Header.Get("Authorization"), r.URL.RequestURI())
			if err != nil {
				metrics.IncAuthFailures()
				detail := "invalid authorization token"
				var authErr *auth.AuthenticationError
				if errors.As(err, &authErr) {
					detail = authErr.Reason
				}
				slog.WarnContext(r.Context(), "authentication failed",
					"method", r.Method,
					"path", r.URL.Path,
					"reason", detail)
				WriteProblem(w, Problem{
					Status:   http.StatusForbidden,
					Title:    http.StatusText(http.StatusForbidden),
					Detail:   detail,
					Instance: r.URL.RequestURI(),
				})
				return
			}
			notePrincipal(r, id)
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuth rejects anonymous callers with 403. Mount after CurrentUser.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.FromContext(r.Context()).IsAuthenticated() {
			WriteProblem(w, Problem{
				Status:   http.StatusForbidden,
				Title:    http.StatusText(http.StatusForbidden),
				Detail:   "User lacks permission to complete this action",
				Instance: r.URL.RequestURI(),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
