package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ptmyrd/google-ads-mcp/internal/telemetry"
)

func testLogger() *slog.Logger {
	return telemetry.NewLogger(io.Discard, slog.LevelError)
}

// echoDelegate echoes the request body back and counts invocations.
type echoDelegate struct {
	calls atomic.Int64
}

func (d *echoDelegate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.calls.Add(1)
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func newTestServer(t *testing.T, delegate http.Handler, token string) http.Handler {
	t.Helper()
	return NewServer(delegate,
		WithLogger(testLogger()),
		WithToken(func() string { return token }),
		WithServerName("google-ads-mcp"),
	).Handler()
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, &echoDelegate{}, "secret")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok")
	}
}

func TestProbe(t *testing.T) {
	delegate := &echoDelegate{}
	h := newTestServer(t, delegate, "secret")

	for _, path := range []string{"/mcp", "/mcp/"} {
		for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
			t.Run(method+" "+path, func(t *testing.T) {
				req := httptest.NewRequest(method, path, nil)
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)

				if rec.Code != http.StatusOK {
					t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
				}
				if method == http.MethodGet {
					var body map[string]string
					if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
						t.Fatalf("unmarshal body: %v", err)
					}
					if body["status"] != "ok" {
						t.Errorf("status field = %q, want %q", body["status"], "ok")
					}
					if body["server"] != "google-ads-mcp" {
						t.Errorf("server field = %q, want %q", body["server"], "google-ads-mcp")
					}
				}
			})
		}
	}

	if delegate.calls.Load() != 0 {
		t.Errorf("delegate invoked %d times by probes, want 0", delegate.calls.Load())
	}
}

func TestNoRedirects(t *testing.T) {
	h := newTestServer(t, &echoDelegate{}, "secret")

	for _, path := range []string{"/mcp", "/mcp/"} {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			req := httptest.NewRequest(method, path, strings.NewReader("{}"))
			req.Header.Set("Authorization", "Bearer secret")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code >= 300 && rec.Code < 400 {
				t.Errorf("%s %s returned redirect %d", method, path, rec.Code)
			}
		}
	}
}

func TestDelegateForwarding(t *testing.T) {
	delegate := &echoDelegate{}
	h := newTestServer(t, delegate, "secret")

	const payload = `{"jsonrpc":"2.0","method":"ping","id":1}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != payload {
		t.Errorf("body = %q, want the delegate's echo %q", rec.Body.String(), payload)
	}
	if delegate.calls.Load() != 1 {
		t.Errorf("delegate calls = %d, want 1", delegate.calls.Load())
	}
}

func TestUnauthorizedPost(t *testing.T) {
	delegate := &echoDelegate{}
	h := newTestServer(t, delegate, "secret")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong token", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Unauthorized"}` {
				t.Errorf("body = %q, want %q", got, `{"error":"Unauthorized"}`)
			}
		})
	}

	if delegate.calls.Load() != 0 {
		t.Errorf("delegate invoked %d times by rejected requests, want 0", delegate.calls.Load())
	}
}

func TestQuotedAuthorizationAccepted(t *testing.T) {
	delegate := &echoDelegate{}
	h := newTestServer(t, delegate, "secret")

	for _, header := range []string{"Bearer secret", `"Bearer secret"`, "secret", `"secret"`} {
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("header %q: status = %d, want %d", header, rec.Code, http.StatusOK)
		}
	}
}

func TestNotFound(t *testing.T) {
	h := newTestServer(t, &echoDelegate{}, "")

	for _, path := range []string{"/", "/other", "/mcp/session"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: status = %d, want %d", path, rec.Code, http.StatusNotFound)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := NewServer(&echoDelegate{},
		WithLogger(testLogger()),
		WithMetrics(telemetry.NewMetrics()),
		WithToken(func() string { return "secret" }),
	)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestServer(t, &echoDelegate{}, "")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("X-Request-Id header not set")
	}
}

// Concurrent authenticated POSTs must each receive their own echoed payload.
func TestConcurrentDelegateIsolation(t *testing.T) {
	h := newTestServer(t, &echoDelegate{}, "secret")

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			payload := fmt.Sprintf(`{"request":%d}`, id)
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(payload))
			req.Header.Set("Authorization", "Bearer secret")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				errs <- fmt.Errorf("request %d: status %d", id, rec.Code)
				return
			}
			if rec.Body.String() != payload {
				errs <- fmt.Errorf("request %d: got body %q, want %q", id, rec.Body.String(), payload)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
