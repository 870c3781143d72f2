package auth

import (
	"encoding/json"
	"net/http"
)

// TokenFunc supplies the currently required bearer token. It is invoked once
// per request rather than captured at startup, so rotating the token in the
// environment takes effect on the next request without a restart.
type TokenFunc func() string

// Middleware returns an HTTP middleware that applies Decide to every request.
// Requests to skipPaths (e.g. "/healthz", "/metrics") bypass the decision
// entirely. If onDeny is provided it is called for every rejected request.
func Middleware(token TokenFunc, skipPaths []string, onDeny ...func()) func(http.Handler) http.Handler {
	skipSet := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skipSet[p] = true
	}

	var deny func()
	if len(onDeny) > 0 {
		deny = onDeny[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			if Decide(r.Method, r.Header.Get("Authorization"), token()) == Denied {
				if deny != nil {
					deny()
				}
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
