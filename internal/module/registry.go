// internal/module/registry.go
//
// A super-light registry: modules call Register(path, handler) in an init()
// function.  Mount adds every registered exact path to the root router with
// a GET route.  Modules are operational endpoints (health, diagnostics),
// not pages; pages are Components.
//
// Handler signature:
//
//	func(env *component.Env, w http.ResponseWriter, r *http.Request)
//
// This gives handlers access to shared resources (config, database, visitor
// store) without a package-level global.
package module

import (
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/agencysite/internal/component"
)

// Handler is what modules register.
type Handler func(*component.Env, http.ResponseWriter, *http.Request)

var (
	mu       sync.RWMutex
	registry = map[string]Handler{}
)

// Register is called from module init() functions.
func Register(path string, h Handler) {
	mu.Lock()
	registry[path] = h
	mu.Unlock()
}

// Lookup returns the handler for an exact path or nil.
func Lookup(path string) Handler {
	mu.RLock()
	defer mu.RUnlock()
	return registry[path]
}

// Paths returns every registered path, sorted.
func Paths() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Mount adds a GET route per registered module.
func Mount(r chi.Router, env *component.Env) {
	for _, p := range Paths() {
		h := Lookup(p)
		r.Get(p, func(w http.ResponseWriter, req *http.Request) { h(env, w, req) })
	}
}
