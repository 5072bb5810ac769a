package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Middleware rejects unauthenticated requests with 401. Paths under
// SkipPrefixes (health probes, metrics) bypass authentication. OnDeny, when
// set, observes every rejection.
type Middleware struct {
	Logger        *slog.Logger
	Authenticator Authenticator
	SkipPrefixes  []string
	OnDeny        func(r *http.Request)
}

func (m Middleware) Wrap(next http.Handler) http.Handler {
	if m.Authenticator == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range m.SkipPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		identity, err := m.Authenticator.Authenticate(r.Context(), r)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("request denied",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", r.Header.Get("X-Request-Id"),
					"error", err,
				)
			}
			if m.OnDeny != nil {
				m.OnDeny(r)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":      "unauthorized",
				"request_id": r.Header.Get("X-Request-Id"),
			})
			return
		}

		r.Header.Set("X-Auth-Subject", identity.Subject)
		next.ServeHTTP(w, r)
	})
}
