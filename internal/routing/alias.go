// internal/routing/alias.go
//
// Alias table and rewrite middleware.
//
// Context
// -------
// Operators expose friendly paths (`/work`, `/hire-us`) that must be
// rewritten to canonical page paths (`/portfolio`, `/contact`).  The pairs
// live in `routes.aliases` in site.yaml; config reload swaps the whole table
// atomically via Replace.
//
// Workflow
// --------
//   1. main builds the table via routing.NewAliasTable(cfg.Routes.Aliases).
//   2. The server wires routing.Middleware(table) early in the chain.
//   3. Middleware rewrites r.URL.Path on a hit; otherwise falls through.
//
// Notes
// -----
// • Lookups ignore one trailing slash, so `/work/` matches `/work`.
// • Max line length 100 columns.

package routing

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// AliasTable
// -----------------------------------------------------------------------------

// AliasTable stores alias→target pairs.  Zero value is unusable; construct
// with NewAliasTable.
type AliasTable struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewAliasTable validates and installs m.
func NewAliasTable(m map[string]string) (*AliasTable, error) {
	t := &AliasTable{data: map[string]string{}}
	if err := t.Replace(m); err != nil {
		return nil, err
	}
	return t, nil
}

// Replace swaps in a fresh set of aliases.  Both sides must be absolute
// paths and no alias may point at itself or at another alias.
func (t *AliasTable) Replace(m map[string]string) error {
	fresh := make(map[string]string, len(m))
	for alias, target := range m {
		a, tg := clean(alias), clean(target)
		if !strings.HasPrefix(a, "/") || !strings.HasPrefix(tg, "/") {
			return fmt.Errorf("routing: alias %q → %q must use absolute paths", alias, target)
		}
		if a == tg {
			return fmt.Errorf("routing: alias %q points at itself", alias)
		}
		fresh[a] = tg
	}
	for a, tg := range fresh {
		if _, chained := fresh[tg]; chained {
			return fmt.Errorf("routing: alias %q targets another alias %q", a, tg)
		}
	}

	t.mu.Lock()
	t.data = fresh
	t.mu.Unlock()

	zap.L().Debug("alias table load", zap.Int("count", len(fresh)))
	return nil
}

// Lookup returns the canonical target for path.
func (t *AliasTable) Lookup(path string) (string, bool) {
	t.mu.RLock()
	target, ok := t.data[clean(path)]
	t.mu.RUnlock()
	return target, ok
}

// Len reports how many aliases are installed.
func (t *AliasTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data)
}

func clean(p string) string {
	p = strings.TrimSpace(p)
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// -----------------------------------------------------------------------------
// Middleware factory
// -----------------------------------------------------------------------------

// Middleware returns a Chi middleware that rewrites alias paths.
func Middleware(t *AliasTable) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if target, ok := t.Lookup(r.URL.Path); ok {
				original := r.URL.Path
				r.URL.Path = target
				r.URL.RawPath = ""
				r.RequestURI = r.URL.RequestURI()
				zap.L().Debug("alias rewrite",
					zap.String("from", original),
					zap.String("to", target))
			}
			next.ServeHTTP(w, r)
		})
	}
}
