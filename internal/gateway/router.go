// Package gateway implements the HTTP front door for the MCP server: bearer
// auth, liveness probes, and verbatim delegation to the protocol handler.
package gateway

import (
	"net/http"
	"strings"
)

// Target identifies which handler a request resolves to.
type Target int

const (
	// TargetNotFound is returned for any path outside the known routes.
	TargetNotFound Target = iota
	// TargetHealth is the plaintext liveness endpoint.
	TargetHealth
	// TargetMetrics is the Prometheus exposition endpoint.
	TargetMetrics
	// TargetProbe is the synthetic status response for safe methods on the
	// protocol mount.
	TargetProbe
	// TargetDelegate forwards to the protocol handler.
	TargetDelegate
)

// String returns the target name, used as a metric label.
func (t Target) String() string {
	switch t {
	case TargetHealth:
		return "health"
	case TargetMetrics:
		return "metrics"
	case TargetProbe:
		return "probe"
	case TargetDelegate:
		return "delegate"
	default:
		return "notfound"
	}
}

// Router resolves (method, path) pairs to targets. The protocol mount matches
// with or without a single trailing slash; the two spellings are the same
// logical route and no redirect is ever issued, because many RPC clients do
// not follow redirects for streaming POST bodies.
type Router struct {
	mountPath   string
	healthPath  string
	metricsPath string
}

// NewRouter creates a router for the given mount and health paths. A trailing
// slash on mountPath is normalized away.
func NewRouter(mountPath, healthPath, metricsPath string) *Router {
	return &Router{
		mountPath:   strings.TrimSuffix(mountPath, "/"),
		healthPath:  healthPath,
		metricsPath: metricsPath,
	}
}

// Route resolves one request. Safe methods (GET, HEAD, OPTIONS) on the mount
// get the probe response; everything else on the mount, including the
// transport's streaming sequence, goes to the delegate.
func (rt *Router) Route(method, path string) Target {
	switch path {
	case rt.healthPath:
		return TargetHealth
	case rt.metricsPath:
		return TargetMetrics
	}

	p := path
	if strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	if p != rt.mountPath {
		return TargetNotFound
	}

	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return TargetProbe
	default:
		return TargetDelegate
	}
}
