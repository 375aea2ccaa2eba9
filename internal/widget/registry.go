// internal/widget/registry.go
//
// Widget registry and lookup helpers.
//
// A **Widget** is a reusable view fragment rendered inside a page.  Each
// concrete widget registers itself by calling `widget.Register(w)` when its
// package loads its definitions (see internal/form).
//
// The key used for registration is `<namespace>/<name>`, e.g.
// "form/contact", and must be returned by the widget’s `ID` method.
//
// Template authors can embed a widget with:
//
//	{{ widget "form/contact" (dict "state" .Data.Form) }}
//
// Params are optional.  The helper looks up the widget, invokes
// `Render`, and returns `template.HTML`.
package widget

import (
	"sort"
	"sync"
)

// CachePolicy hints how the caller may cache the surrounding page.
type CachePolicy int

const (
	CacheDefault CachePolicy = iota // obey global policy
	CacheSkip                       // never cache (per-visitor or CSRF content)
	CacheForce                      // always cache (reserved)
)

// Widget represents a view fragment that can be embedded inside any page
// template.  Render returns the generated HTML and a cache policy hint.
// Params are an arbitrary key‑value map passed from the template.
//
// Implementations should treat missing params defensively (nil map).
// rctx is the page's *view.Context; widgets that need it type-assert.
//
// Errors should be returned, not written to http.ResponseWriter, so the
// calling helper can decide how to surface the failure.
//
// Render MUST be concurrency‑safe; multiple goroutines may call it.
type Widget interface {
	ID() string
	Render(rctx any, params map[string]any) (html string, policy CachePolicy, err error)
}

var (
	mu       sync.RWMutex
	registry = map[string]Widget{}
)

// Register a widget.  If a duplicate key is registered the latter entry
// overwrites the former, which is how override definitions replace the
// built-ins.
func Register(w Widget) {
	mu.Lock()
	registry[w.ID()] = w
	mu.Unlock()
}

// Lookup returns the widget or nil.
func Lookup(key string) Widget {
	mu.RLock()
	defer mu.RUnlock()
	return registry[key]
}

// All returns the registered widgets sorted by ID, useful for tests or
// auto‑documentation.
func All() []Widget {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Widget, 0, len(registry))
	for _, w := range registry {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
