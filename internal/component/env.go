package component

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/agencysite/internal/config"
	"github.com/yanizio/agencysite/internal/content"
	"github.com/yanizio/agencysite/internal/form"
	"github.com/yanizio/agencysite/internal/inquiry"
	"github.com/yanizio/agencysite/internal/session"
	"github.com/yanizio/agencysite/internal/view"
)

// Env exposes shared resources to Components during Init.  DB and
// Inquiries are nil when persistence is disabled.
type Env struct {
	Config    *config.Config
	Catalog   *content.Catalog
	Views     *view.Engine
	Visitors  *session.Store
	Guard     form.Guard
	DB        *sqlx.DB
	Inquiries *inquiry.Repository
	Log       *zap.SugaredLogger
}

// SiteName returns the configured site name, falling back to the company
// name in the catalogue.
func (e *Env) SiteName() string {
	if e.Config != nil && e.Config.SiteName != "" {
		return e.Config.SiteName
	}
	if e.Catalog != nil {
		return e.Catalog.Company().Name
	}
	return ""
}

// Debug reports whether debug endpoints are enabled.
func (e *Env) Debug() bool { return e.Config != nil && e.Config.Debug }

// NewContext builds the view context for r with shared head defaults.
func (e *Env) NewContext(r *http.Request, title string, data any) *view.Context {
	ctx := view.NewContext(r, e.SiteName(), data)
	if title != "" {
		ctx.Head.SetTitle(title)
	}
	ctx.Head.Meta(`<meta charset="utf-8">`)
	ctx.Head.Meta(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	if e.Config != nil && e.Config.BaseURL != "" {
		ctx.Head.Canonical(e.Config.BaseURL + r.URL.Path)
	}
	return ctx
}

func (e *Env) logger() *zap.SugaredLogger {
	if e == nil || e.Log == nil {
		return zap.S()
	}
	return e.Log
}

// Logger returns the environment logger, never nil.
func (e *Env) Logger() *zap.SugaredLogger { return e.logger() }

// Render writes page through the view engine.  Template failures become a
// plain 500; details stay in the log.
func (e *Env) Render(w http.ResponseWriter, ctx *view.Context, page string) {
	if err := e.Views.Render(ctx, w, page, view.CacheDefault); err != nil {
		e.logger().Errorw("page render failed", "page", page, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Visitor returns the caller's visitor, attached by session.Middleware.
func (e *Env) Visitor(r *http.Request) (*session.Visitor, bool) {
	v := session.FromContext(r.Context())
	return v, v != nil
}
