// internal/routing/alias_test.go
//
// Unit-tests for the alias rewrite middleware.
//
// Context
// -------
// These tests verify three critical behaviours:
//
//   • Hit rewrites the path and keeps the query string.
//   • Miss leaves the path untouched.
//   • Replace rejects self-references, chains, and relative paths.
//
// Notes
// -----
// • Lines ≤ 100 columns.

package routing

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAliasRewrite_Hit(t *testing.T) {
	table, err := NewAliasTable(map[string]string{"/work": "/portfolio"})
	if err != nil {
		t.Fatalf("NewAliasTable: %v", err)
	}

	var got, query string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Path
		query = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/work/?category=web", nil)
	rr := httptest.NewRecorder()

	Middleware(table)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got != "/portfolio" || query != "category=web" {
		t.Fatalf("rewrite failed: got %q ? %q", got, query)
	}
}

func TestAliasRewrite_Miss_NoMutation(t *testing.T) {
	table, _ := NewAliasTable(nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/keep" {
			t.Fatalf("path mutated on miss: %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	Middleware(table)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/keep", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestAliasTable_Replace(t *testing.T) {
	bad := []map[string]string{
		{"/a": "/a/"},
		{"/a": "/b", "/b": "/c"},
		{"a": "/b"},
		{"/a": "b"},
	}
	table, _ := NewAliasTable(map[string]string{"/x": "/y"})
	for _, m := range bad {
		if err := table.Replace(m); err == nil {
			t.Errorf("Replace(%v) accepted", m)
		}
	}
	if table.Len() != 1 {
		t.Fatalf("failed Replace modified table: len %d", table.Len())
	}
}
