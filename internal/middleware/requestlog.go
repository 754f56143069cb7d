package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/crucial707/geo-catalog/internal/auth"
)

// responseWriter wraps http.ResponseWriter to capture status and size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// RequestLog runs outside CurrentUser, so the identity is reported back through
// a slot placed on the context.
type principalKey struct{}

type principalSlot struct{ name string }

func withPrincipalSlot(ctx context.Context, slot *principalSlot) context.Context {
	return context.WithValue(ctx, principalKey{}, slot)
}

// RequestLog logs each request with request_id, method, path, status, duration, size
// and the authenticated principal (empty for anonymous calls). The request id is
// echoed in the X-Request-Id response header.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if id := chimw.GetReqID(r.Context()); id != "" {
			w.Header().Set(chimw.RequestIDHeader, id)
		}
		wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		slot := &principalSlot{}
		next.ServeHTTP(wrap, r.WithContext(withPrincipalSlot(r.Context(), slot)))
		slog.Info("request",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrap.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"size", wrap.size,
			"principal", slot.name)
	})
}

// notePrincipal records the resolved username for RequestLog, if it is mounted.
func notePrincipal(r *http.Request, id auth.Identity) {
	if slot, ok := r.Context().Value(principalKey{}).(*principalSlot); ok {
		slot.name = id.Username()
	}
}
