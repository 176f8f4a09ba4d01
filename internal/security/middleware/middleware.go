package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/orderdesk/internal/app"
	"github.com/yourorg/orderdesk/internal/security/audit"
	"github.com/yourorg/orderdesk/internal/security/ratelimit"
)

// SessionCookie names the console session cookie.
const SessionCookie = "orderdesk_sid"

type sessionKey struct{}

func isInfra(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

// RequestID attaches a request id to the context and response headers and
// logs each completed request.
func RequestID(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)
			start := time.Now()

			next.ServeHTTP(w, r.WithContext(audit.WithRequestID(r.Context(), reqID)))

			log.Info("request completed",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration_ms", time.Since(start)),
			)
		})
	}
}

// Session binds each request to its console session, issuing a cookie for
// new ones.
func Session(registry *app.Registry, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isInfra(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			var id string
			if c, err := r.Cookie(SessionCookie); err == nil {
				id = c.Value
			}
			a, _ := registry.Acquire(id)
			if a.ID() != id {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    a.ID(),
					Path:     "/",
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			a.Touch()

			ctx := context.WithValue(r.Context(), sessionKey{}, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the console session bound by Session.
func SessionFromContext(ctx context.Context) *app.App {
	if a, ok := ctx.Value(sessionKey{}).(*app.App); ok {
		return a
	}
	return nil
}

// RateLimit limits each console session, and login attempts per client IP
// more tightly.
func RateLimit(limiter *ratelimit.Limiter, loginPerMinute int, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isInfra(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodPost && r.URL.Path == "/login" {
				ip := clientIP(r)
				if !limiter.AllowStrict(ip, loginPerMinute, time.Minute) {
					log.Warn("login rate limit exceeded", slog.String("client_ip", ip))
					writeError(w, http.StatusTooManyRequests, "too many login attempts")
					return
				}
			}

			sessionID := ""
			if a := SessionFromContext(r.Context()); a != nil {
				sessionID = a.ID()
			}
			if !limiter.Allow(sessionID) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows the configured origins with credentials so the session
// cookie is sent.
func CORS(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if originAllowed(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

// Chain applies middlewares so the first one listed runs first.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
