package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ptmyrd/google-ads-mcp/internal/auth"
	"github.com/ptmyrd/google-ads-mcp/internal/telemetry"
)

// Default paths served by the gateway.
const (
	DefaultMountPath   = "/mcp"
	DefaultHealthPath  = "/healthz"
	DefaultMetricsPath = "/metrics"
)

// Server composes the gateway: auth in front of the router, the router in
// front of the probe, health, metrics, and delegate handlers. The delegate is
// injected so tests can substitute a fake for the MCP protocol handler.
type Server struct {
	router     *Router
	delegate   http.Handler
	logger     *slog.Logger
	metrics    *telemetry.Metrics
	token      auth.TokenFunc
	serverName string
	httpServer *http.Server
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics sets the metrics collector and enables the metrics endpoint.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithToken sets the required-token accessor. The function is called per
// request; returning an empty string disables authentication.
func WithToken(token auth.TokenFunc) Option {
	return func(s *Server) { s.token = token }
}

// WithServerName sets the name reported by the probe response.
func WithServerName(name string) Option {
	return func(s *Server) { s.serverName = name }
}

// WithPaths overrides the mount and health paths.
func WithPaths(mountPath, healthPath string) Option {
	return func(s *Server) {
		s.router = NewRouter(mountPath, healthPath, DefaultMetricsPath)
	}
}

// NewServer creates a gateway in front of the given delegate handler.
func NewServer(delegate http.Handler, opts ...Option) *Server {
	s := &Server{
		router:     NewRouter(DefaultMountPath, DefaultHealthPath, DefaultMetricsPath),
		delegate:   delegate,
		logger:     slog.Default(),
		serverName: "google-ads-mcp",
		token:      func() string { return "" },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the fully composed HTTP handler.
func (s *Server) Handler() http.Handler {
	skip := []string{s.router.healthPath, s.router.metricsPath}
	var onDeny func()
	if s.metrics != nil {
		onDeny = s.metrics.RecordAuthDenied
	}

	var h http.Handler = http.HandlerFunc(s.dispatch)
	if onDeny != nil {
		h = auth.Middleware(s.token, skip, onDeny)(h)
	} else {
		h = auth.Middleware(s.token, skip)(h)
	}
	return s.instrument(h)
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("gateway listening", "addr", addr, "mount", s.router.mountPath)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// dispatch routes an admitted request to its target handler. Delegate
// forwarding is a direct ServeHTTP call: body, headers, and streaming
// semantics pass through untouched and delegate errors surface unmodified.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	switch s.router.Route(r.Method, r.URL.Path) {
	case TargetHealth:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	case TargetMetrics:
		if s.metrics == nil {
			http.NotFound(w, r)
			return
		}
		s.metrics.Handler().ServeHTTP(w, r)
	case TargetProbe:
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"server": s.serverName,
		})
	case TargetDelegate:
		s.delegate.ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
