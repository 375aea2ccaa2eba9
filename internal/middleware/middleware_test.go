package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/agencysite/internal/logger"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(true)(ok)

	cases := []struct {
		name   string
		host   string
		tls    bool
		proto  string
		status int
	}{
		{"plain redirects", "example.com", false, "", http.StatusPermanentRedirect},
		{"localhost passes", "localhost:8080", false, "", http.StatusNoContent},
		{"tls passes", "example.com", true, "", http.StatusNoContent},
		{"proxy https passes", "example.com", false, "https", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://"+tc.host+"/about?x=1", nil)
			req.Host = tc.host
			if tc.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if tc.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusPermanentRedirect {
				if got := rec.Header().Get("Location"); got != "https://example.com/about?x=1" {
					t.Fatalf("Location = %q", got)
				}
			}
		})
	}

	rec := httptest.NewRecorder()
	ForceHTTPS(false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("disabled: status = %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Security("", false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("Content-Security-Policy"); got != DefaultCSP {
		t.Fatalf("CSP = %q", got)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("X-Frame-Options missing")
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS sent without force_https")
	}

	rec = httptest.NewRecorder()
	Security("default-src 'none'", true)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("Content-Security-Policy") != "default-src 'none'" {
		t.Fatal("custom CSP not applied")
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("HSTS missing")
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core).Sugar()

	var fromCtx *zap.SugaredLogger
	h := chimw.RequestID(RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = logger.FromContext(r.Context())
		http.Error(w, "nope", http.StatusNotFound)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	if fromCtx == nil || fromCtx == zap.S() {
		t.Fatal("request logger not placed in context")
	}
	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("access lines = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(404) {
		t.Fatalf("status field = %v", fields["status"])
	}
	if fields["req_id"] == "" {
		t.Fatal("req_id missing")
	}
}
