// Package auth provides the bearer-token admission decision and HTTP
// middleware for the gateway.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Result is the outcome of an admission decision.
type Result int

const (
	// Allowed means the request may proceed to routing.
	Allowed Result = iota
	// Denied means the request must be rejected with 401.
	Denied
)

// Decide evaluates one request against the required token.
//
// Safe methods (GET, HEAD, OPTIONS) are always allowed: agent-orchestration
// clients probe liveness with unauthenticated safe requests and must never be
// blocked. For state-changing methods the Authorization header is parsed
// tolerantly (see ExtractToken) and compared byte-exactly against required.
// An empty required token disables authentication entirely.
func Decide(method, authorization, required string) Result {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return Allowed
	}

	if required == "" {
		return Allowed
	}
	if validToken(ExtractToken(authorization), required) {
		return Allowed
	}
	return Denied
}

// ExtractToken pulls the bearer token out of an Authorization header value.
// Some clients inadvertently quote the whole header or omit the scheme, so
// the parse accepts "Bearer <t>", bare "<t>", and either form wrapped in a
// single pair of double quotes.
func ExtractToken(authorization string) string {
	v := strings.TrimSpace(authorization)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = strings.TrimSpace(v[1 : len(v)-1])
	}
	const prefix = "bearer "
	if len(v) >= len(prefix) && strings.EqualFold(v[:len(prefix)], prefix) {
		return strings.TrimSpace(v[len(prefix):])
	}
	return v
}

// validToken performs a timing-safe comparison of the provided token against
// the expected token.
func validToken(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
