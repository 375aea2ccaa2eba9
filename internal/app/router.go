package app

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/agencysite/internal/component"
	"github.com/yanizio/agencysite/internal/middleware"
	"github.com/yanizio/agencysite/internal/module"
	"github.com/yanizio/agencysite/internal/requestinfo"
	"github.com/yanizio/agencysite/internal/routing"
	"github.com/yanizio/agencysite/internal/session"
	"github.com/yanizio/agencysite/internal/theme"
)

// RouterOptions tune Router.  A nil Aliases disables rewriting.
type RouterOptions struct {
	Aliases *routing.AliasTable
}

// Router builds the root handler.
//
// Middleware order:
//
//	RequestID → RealIP → RequestLogger → Recoverer → ForceHTTPS →
//	Security → alias rewrite → requestinfo.Enrich → (visitor cookie)
//
// The alias rewrite must run before request-info enrichment and before chi
// matches the route.  Only component routes create visitors; metrics,
// assets, and modules never do.
func Router(env *component.Env, opts RouterOptions) (http.Handler, error) {
	cfg := env.Config
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(env.Logger()))
	r.Use(chimw.Recoverer)
	r.Use(middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS))
	r.Use(middleware.Security(cfg.Security.CSP, cfg.HTTP.ForceHTTPS))
	if opts.Aliases != nil {
		r.Use(routing.Middleware(opts.Aliases))
	}
	r.Use(requestinfo.Enrich)

	r.Handle("/metrics", promhttp.Handler())

	th := env.Views.Theme()
	prefix := theme.AssetPrefix(th.Name)
	r.Handle(prefix+"*", http.StripPrefix(strings.TrimSuffix(prefix, "/"), th.AssetHandler()))

	cookie := session.CookieOptions{
		Name:   cfg.Session.CookieName,
		Secret: cfg.Session.Secret,
		Secure: cfg.Session.Secure || cfg.HTTP.ForceHTTPS,
	}

	var mountErr error
	r.Group(func(r chi.Router) {
		peek := cookie
		peek.Peek = true
		r.Use(session.Middleware(env.Visitors, peek))
		module.Mount(r, env)
	})
	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(env.Visitors, cookie))
		mountErr = component.Mount(r, env)
	})
	if mountErr != nil {
		return nil, mountErr
	}
	return r, nil
}
