// internal/view/render.go
//
// Central view engine: page lookup, func-map injection, and an LRU of
// parsed *template.Template* sets.
//
// Public helpers
// --------------
//   - Render         – write a full page (layout + page) to w.
//   - RenderToString – return template.HTML for one named template
//     (fragments for script clients, e-mail bodies).
//
// Lookup
// ------
// The theme's layout and partials are parsed once at boot (theme.Base).
// Each page clones that base and parses pages/<page>.html on top, so every
// page may define its own "title" and "content" blocks.  The resulting set
// is cached in an LRU keyed by theme and page; singleflight collapses a
// burst of cold requests into one parse.
//
// Request-bound helpers
// ---------------------
// A cached set is never executed.  Every render clones it and installs the
// request funcs (currently `widget`) on the clone, so no request state is
// ever captured by a shared template.

package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/agencysite/internal/cache"
	"github.com/yanizio/agencysite/internal/metrics"
	"github.com/yanizio/agencysite/internal/theme"
	"github.com/yanizio/agencysite/internal/widget"
)

//
// cache definitions
//

// CachePolicy hints how the caller wants this template cached.
type CachePolicy = widget.CachePolicy

const (
	CacheDefault = widget.CacheDefault // obey global cache
	CacheSkip    = widget.CacheSkip    // always re-parse (theme development)
	CacheForce   = widget.CacheForce   // reserved
)

// ErrPageNotFound is returned when the theme has no template for a page.
var ErrPageNotFound = errors.New("view: page not found")

// DefaultCapacity bounds the parsed-set cache; tweak when perf-testing.
const DefaultCapacity = 128

// Engine renders pages of one theme.  Safe for concurrent use.
type Engine struct {
	theme *theme.Theme
	lru   *cache.LRU[string, *template.Template]
	sfg   singleflight.Group
	log   *zap.SugaredLogger
}

// Funcs lists the request-bound helpers with inert bodies, for parse time.
// Pass it to theme.Manager.Load.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"dict":   dict,
		"widget": func(string, map[string]any) template.HTML { return "" },
	}
}

// New returns an Engine for th.
func New(th *theme.Theme, capacity int) *Engine {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Engine{
		theme: th,
		lru:   cache.New[string, *template.Template](capacity),
		log:   zap.S().With("theme", th.Name),
	}
}

// Theme returns the engine's theme.
func (e *Engine) Theme() *theme.Theme { return e.theme }

//
// public helpers
//

// Render executes layout + page and streams it to w.  Output is buffered so
// a template error never leaves a half-written page.
func (e *Engine) Render(ctx *Context, w http.ResponseWriter, page string, policy CachePolicy) error {
	ctx.Page = page
	var buf bytes.Buffer
	if err := e.execute(ctx, &buf, page, "layout", policy); err != nil {
		metrics.PageRenderTotal.WithLabelValues(page, "error").Inc()
		return err
	}
	metrics.PageRenderTotal.WithLabelValues(page, "ok").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if ctx.Status != 0 {
		w.WriteHeader(ctx.Status)
	}
	_, err := buf.WriteTo(w)
	return err
}

// RenderToString executes the named template from page's set and returns
// HTML.  It mirrors Render, but writes to a buffer and skips the layout.
func (e *Engine) RenderToString(ctx *Context, page, name string) (template.HTML, error) {
	ctx.Page = page
	var buf bytes.Buffer
	if err := e.execute(ctx, &buf, page, name, CacheDefault); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Purge drops every cached set.
func (e *Engine) Purge() { e.lru.Purge() }

//
// internal: execute / load
//

func (e *Engine) execute(ctx *Context, w io.Writer, page, name string, policy CachePolicy) error {
	set, err := e.load(page, policy)
	if err != nil {
		return err
	}
	t, err := set.Clone()
	if err != nil {
		return fmt.Errorf("view: clone %s: %w", page, err)
	}
	t.Funcs(requestFuncs(ctx))
	if err := t.ExecuteTemplate(w, execName(t, name), ctx); err != nil {
		e.log.Errorw("template execute failed", "page", page, "template", name, "err", err)
		return fmt.Errorf("view: execute %s/%s: %w", page, name, err)
	}
	return nil
}

// load returns the parsed set for page, obeying policy.
func (e *Engine) load(page string, policy CachePolicy) (*template.Template, error) {
	key := e.theme.Name + "::" + page

	if policy != CacheSkip {
		if t, ok := e.lru.Get(key); ok {
			return t, nil
		}
	}

	v, err, _ := e.sfg.Do(key, func() (any, error) {
		if policy != CacheSkip {
			if t, ok := e.lru.Get(key); ok {
				return t, nil
			}
		}
		if !e.theme.HasPage(page) {
			return nil, fmt.Errorf("%w: %s", ErrPageNotFound, page)
		}
		t, err := e.theme.Base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(e.theme.FS, e.theme.PageFile(page)); err != nil {
			e.log.Errorw("template parse failed", "page", page, "err", err)
			return nil, fmt.Errorf("view: parse %s: %w", page, err)
		}
		if policy != CacheSkip {
			e.lru.Add(key, t)
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*template.Template), nil
}

//
// func-map builders
//

func requestFuncs(ctx *Context) template.FuncMap {
	return template.FuncMap{
		"widget": widgetFunc(ctx),
	}
}

//
// helpers
//

// execName picks the template name to execute.
//
// Priority:
//  1. If the set has "<name>.html" (file-based template), run that.
//  2. Otherwise, fall back to "<name>" (root template defined via define).
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// widgetFunc renders a registered widget and returns safe HTML.  Errors are
// hidden behind <!-- comments --> so end-users never see stack traces.
func widgetFunc(ctx *Context) func(string, map[string]any) template.HTML {
	return func(key string, params map[string]any) template.HTML {
		w := widget.Lookup(key)
		if w == nil {
			return template.HTML("<!-- widget not found -->")
		}
		html, _, err := w.Render(ctx, params)
		if err != nil {
			zap.S().Warnw("widget render failed", "widget", key, "err", err)
			return template.HTML("<!-- widget error -->")
		}
		return template.HTML(html)
	}
}
