package middleware

import (
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/crucial707/geo-catalog/internal/auth"
)

// KeyedRateLimiter holds one token bucket per key (principal or client IP).
type KeyedRateLimiter struct {
	keys  map[string]*rate.Limiter
	mu    sync.RWMutex
	limit rate.Limit
	burst int
}

// NewKeyedRateLimiter creates a keyed rate limiter. limit is events per second;
// for N per minute use rate.Limit(float64(N)/60.0). burst is max tokens per bucket.
func NewKeyedRateLimiter(limit rate.Limit, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		keys:  make(map[string]*rate.Limiter),
		limit: limit,
		burst: burst,
	}
}

// PerMinute is NewKeyedRateLimiter for n events per minute with a burst of n/4 (at least 1).
func PerMinute(n int) *KeyedRateLimiter {
	burst := n / 4
	if burst < 1 {
		burst = 1
	}
	return NewKeyedRateLimiter(rate.Limit(float64(n)/60.0), burst)
}

func (l *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.keys[key]
	l.mu.RUnlock()
	if ok {
		return lim
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock
	if lim, ok = l.keys[key]; ok {
		return lim
	}
	lim = rate.NewLimiter(l.limit, l.burst)
	l.keys[key] = lim
	return lim
}

// clientIP returns the client IP from X-Forwarded-For, X-Real-IP, or RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// rateKey prefers the authenticated principal so one user cannot dodge the limit by changing IP.
func rateKey(r *http.Request) string {
	if name := auth.FromContext(r.Context()).Username(); name != "" {
		return "user:" + name
	}
	return "ip:" + clientIP(r)
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete:
		return true
	}
	return false
}

// Mutations limits PUT/PATCH/POST/DELETE per principal and returns 429 when exceeded.
// Reads pass through. Mount after CurrentUser.
func (l *KeyedRateLimiter) Mutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isMutation(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		if !l.getLimiter(rateKey(r)).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
