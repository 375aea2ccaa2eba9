// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  At boot, Mount runs every
// component's Init (when it implements Initializer) with the shared Env
// and then lets it add its routes to the root router.
//
// Notes
// -----
// • Components are mounted in name order so route conflicts surface
//   deterministically.

package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Initializer is optional.  If a Component implements it, Mount calls
// Init(env) once before Routes.
type Initializer interface {
	Init(*Env) error
}

// Component contract.
//
// Migrations() may return nil if the component has no schema changes.
// Routes() should add BOTH page and API endpoints, e.g:
//
//	r.Get("/contact", c.page)
//	r.Route("/api/forms/{form}", func(api chi.Router) { ... })
type Component interface {
	Name() string
	Routes(r chi.Router)
	Migrations() []string
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// AllNames returns the registered names, sorted.
func AllNames() []string {
	all := All()
	out := make([]string, len(all))
	for i, c := range all {
		out[i] = c.Name()
	}
	return out
}

// Mount initialises every component and adds its routes to r.
func Mount(r chi.Router, env *Env) error {
	for _, c := range All() {
		if in, ok := c.(Initializer); ok {
			if err := in.Init(env); err != nil {
				return fmt.Errorf("component %s: init: %w", c.Name(), err)
			}
		}
		c.Routes(r)
		env.logger().Debugw("component mounted", "component", c.Name())
	}
	return nil
}

// Migrations collects every component's DDL in mount order.
func Migrations() []string {
	var out []string
	for _, c := range All() {
		out = append(out, c.Migrations()...)
	}
	return out
}
