// components/services/services.go
//
// Services component – the tabbed service catalogue and the inquiry form.
//
// Routes
// ------
//
//	GET  /services            render the visitor's selector state
//	POST /services/view       category=N selects tab N, expand=K toggles
//	                          card K (303 to /services#services)
//	POST /services/select     pick a service for the inquiry form
//	                          (303 to /services#inquiry)
//
// The selector lives in the visitor session, so tab and card state survive
// reloads without query strings.  Every change is a POST; the session cookie
// is SameSite=Lax, so another site cannot drive it.  The inquiry form itself posts to the
// contact component's /forms/inquiry endpoint.
package services

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/agencysite/internal/component"
	formstate "github.com/yanizio/agencysite/internal/contact"
	"github.com/yanizio/agencysite/internal/content"
	"github.com/yanizio/agencysite/internal/form"
	"github.com/yanizio/agencysite/internal/logger"
)

// compile-time assertions
var (
	_ component.Component   = (*Comp)(nil)
	_ component.Initializer = (*Comp)(nil)
)

// InquiryForm is the form embedded on the services page.
const InquiryForm = "inquiry"

// Comp implements component.Component.
type Comp struct {
	env *component.Env
}

func (c *Comp) Name() string         { return "services" }
func (c *Comp) Migrations() []string { return nil }

func (c *Comp) Init(env *component.Env) error {
	c.env = env
	return nil
}

func (c *Comp) Routes(r chi.Router) {
	r.Get("/services", c.handlePage)
	r.Post("/services/view", c.handleView)
	r.Post("/services/select", c.handleSelect)
}

// Register component at package init.
func init() { component.Register(&Comp{}) }

// PageData is the dot.Data of pages/services.html.
type PageData struct {
	Categories []content.Category
	Active     int
	Cards      []formstate.Card
	Selected   string
	Inquiry    formstate.View
	Process    []content.Step
	Notice     string
	Tokens     *form.Tokens
}

func (c *Comp) handlePage(w http.ResponseWriter, r *http.Request) {
	v, ok := c.env.Visitor(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	q := r.URL.Query()

	ctl, err := v.Form(InquiryForm)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		return
	}
	data := PageData{
		Categories: c.env.Catalog.Categories(),
		Active:     v.Selector.ActiveIndex(),
		Cards:      v.Selector.Cards(),
		Selected:   v.Selector.Selected(),
		Inquiry:    ctl.Snapshot(),
		Process:    c.env.Catalog.Process(),
		Notice:     form.ReasonMessage(q.Get("notice")),
	}
	data.Tokens = c.env.Guard.TokenSource()
	ctx := c.env.NewContext(r, "Services", data)
	ctx.Head.Description("Web, mobile, design, and growth services.")
	c.env.Render(w, ctx, "services")
}

// handleView applies a tab pick and a card toggle.  Out-of-range indexes
// leave the selector as it was.
func (c *Comp) handleView(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	v, ok := c.env.Visitor(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if raw := r.PostForm.Get("category"); raw != "" {
		if i, err := strconv.Atoi(raw); err == nil {
			if err := v.Selector.SelectCategory(i); err != nil {
				log.Debugw("category rejected", "index", i, "err", err)
			}
		}
	}
	if raw := r.PostForm.Get("expand"); raw != "" {
		if k, err := strconv.Atoi(raw); err == nil {
			if _, err := v.Selector.ToggleExpanded(k); err != nil {
				log.Debugw("expand rejected", "index", k, "err", err)
			}
		}
	}
	http.Redirect(w, r, "/services#services", http.StatusSeeOther)
}

func (c *Comp) handleSelect(w http.ResponseWriter, r *http.Request) {
	v, ok := c.env.Visitor(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ctl, err := v.Form(InquiryForm)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		return
	}
	name := r.PostForm.Get("service")
	if err := v.Selector.SelectService(name, ctl); err != nil {
		switch {
		case errors.Is(err, formstate.ErrUnknownService):
			http.Error(w, "unknown service", http.StatusBadRequest)
		case errors.Is(err, formstate.ErrBusy):
			logger.FromContext(r.Context()).Debugw("inquiry form busy", "service", name)
			http.Error(w, "the inquiry form is busy", http.StatusConflict)
		default:
			logger.FromContext(r.Context()).Warnw("service select failed", "service", name, "err", err)
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		}
		return
	}
	http.Redirect(w, r, "/services#inquiry", http.StatusSeeOther)
}
