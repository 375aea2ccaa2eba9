// components/contact/contact.go
//
// Contact component – the contact page, HTML form posts for every
// registered form, and the JSON form API for script-driven clients.
//
// Routes
// ------
//
//	GET  /contact                        page (?fragment=form → form only)
//	POST /contact                        submit the contact form
//	POST /contact/dismiss                hide the success panel
//	POST /forms/{form}                   submit any form (inquiry lives on /services)
//	POST /forms/{form}/dismiss           hide that form's success panel
//	GET  /api/forms/{form}               controller snapshot + CSRF token
//	POST /api/forms/{form}/fields/{field} change / blur event
//	POST /api/forms/{form}/submit        submit (422, 502, 409 on failure)
//	POST /api/forms/{form}/dismiss       hide the success panel
//
// HTML posts follow Post/Redirect/Get: the controller state lives in the
// visitor session, so the page that receives the 303 renders errors, the
// failure banner, or the success panel straight from the snapshot.
//
//------------------------------------------------------------------------------

package contact

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/agencysite/internal/component"
	formstate "github.com/yanizio/agencysite/internal/contact"
	"github.com/yanizio/agencysite/internal/content"
	"github.com/yanizio/agencysite/internal/form"
	"github.com/yanizio/agencysite/internal/inquiry"
	"github.com/yanizio/agencysite/internal/logger"
	"github.com/yanizio/agencysite/internal/requestinfo"
)

// Compile-time assertions.
var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
)

// FormID is the form rendered on /contact.
const FormID = "contact"

// returnPaths maps a form to the page that hosts it.  Unknown forms return
// to the home page.
var returnPaths = map[string]string{
	"contact": "/contact",
	"inquiry": "/services",
}

// Component serves the contact page and form endpoints.
type Component struct {
	env *component.Env
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "contact" }

// Migrations returns the inquiry table DDL used by the store action.
func (c *Component) Migrations() []string { return inquiry.Migrations }

// Init keeps the shared environment.
func (c *Component) Init(env *component.Env) error {
	c.env = env
	return nil
}

// Routes adds page and API endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Get("/contact", c.handlePage)
	r.Post("/contact", c.submitHTML(FormID))
	r.Post("/contact/dismiss", c.dismissHTML(FormID))

	r.Post("/forms/{form}", func(w http.ResponseWriter, r *http.Request) {
		c.submitHTML(chi.URLParam(r, "form"))(w, r)
	})
	r.Post("/forms/{form}/dismiss", func(w http.ResponseWriter, r *http.Request) {
		c.dismissHTML(chi.URLParam(r, "form"))(w, r)
	})

	r.Route("/api/forms/{form}", func(api chi.Router) {
		api.Get("/", c.apiState)
		api.Post("/fields/{field}", c.apiField)
		api.Post("/submit", c.apiSubmit)
		api.Post("/dismiss", c.apiDismiss)
	})
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── page ────────────────────────────────────────*/

// PageData is the dot.Data of pages/contact.html.
type PageData struct {
	Company content.Company
	Form    formstate.View
	Notice  string
	Tokens  *form.Tokens
}

func (c *Component) handlePage(w http.ResponseWriter, r *http.Request) {
	ctl, ok := c.controller(w, r, FormID)
	if !ok {
		return
	}
	data := PageData{
		Company: c.env.Catalog.Company(),
		Form:    ctl.Snapshot(),
		Notice:  form.ReasonMessage(r.URL.Query().Get("notice")),
		Tokens:  c.env.Guard.TokenSource(),
	}
	ctx := c.env.NewContext(r, "Contact", data)
	ctx.Head.Description("Tell us about your project.  We reply within one business day.")

	if r.URL.Query().Get("fragment") == "form" {
		html, err := c.env.Views.RenderToString(ctx, "contact", "form-panel")
		if err != nil {
			c.env.Logger().Errorw("contact fragment failed", "err", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
		return
	}
	c.env.Render(w, ctx, "contact")
}

/*──────────────────────────── HTML posts ──────────────────────────────────*/

func (c *Component) submitHTML(formID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		ctl, ok := c.controller(w, r, formID)
		if !ok {
			return
		}
		back := returnPath(formID)

		data, err := form.ParsePost(formID, r, c.env.Guard)
		if err != nil {
			var ge *form.GuardError
			if errors.As(err, &ge) {
				log.Infow("form post rejected", "form", formID, "reason", ge.Reason, "err", ge.Err)
				redirect(w, r, back, url.Values{"notice": {ge.Reason}}, formID)
				return
			}
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		// ErrBusy: a send is in flight or the success panel is up.  The
		// post is dropped and the visitor sees the current state.
		if err := ctl.Load(data); err != nil {
			log.Debugw("form not taking input", "form", formID, "err", err)
			redirect(w, r, back, nil, formID)
			return
		}
		_, err = ctl.Submit(r.Context(), requestinfo.SubmissionMeta(r.Context()))
		switch {
		case err == nil, formstate.IsValidationError(err):
		case errors.Is(err, formstate.ErrBusy):
			log.Debugw("form busy", "form", formID)
		case errors.Is(err, r.Context().Err()):
			return // client went away; the send still lands in the session
		default:
			var se *formstate.SubmissionError
			if !errors.As(err, &se) {
				log.Warnw("form submit failed", "form", formID, "err", err)
			}
		}
		redirect(w, r, back, nil, formID)
	}
}

func (c *Component) dismissHTML(formID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctl, ok := c.controller(w, r, formID)
		if !ok {
			return
		}
		back := returnPath(formID)
		r.Body = http.MaxBytesReader(w, r.Body, 16<<10)
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		// The dismiss button submits the form it sits in, so the rendered
		// token comes along with it.
		if err := c.env.Guard.TokenSource().Verify(r.PostForm.Get(form.FieldCSRF)); err != nil {
			logger.FromContext(r.Context()).Infow("dismiss rejected", "form", formID, "err", err)
			redirect(w, r, back, url.Values{"notice": {"token"}}, formID)
			return
		}
		ctl.Dismiss()
		redirect(w, r, back, nil, formID)
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// controller resolves the visitor's controller for formID, writing 404 for
// unknown forms and 500 when no visitor is attached.
func (c *Component) controller(w http.ResponseWriter, r *http.Request, formID string) (*formstate.Controller, bool) {
	if _, ok := form.GetFormDef(formID); !ok {
		http.NotFound(w, r)
		return nil, false
	}
	v, ok := c.env.Visitor(r)
	if !ok {
		logger.FromContext(r.Context()).Errorw("no visitor on request", "path", r.URL.Path)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	ctl, err := v.Form(formID)
	if err != nil {
		logger.FromContext(r.Context()).Warnw("visitor form unavailable", "form", formID, "err", err)
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		return nil, false
	}
	return ctl, true
}

func returnPath(formID string) string {
	if p, ok := returnPaths[formID]; ok {
		return p
	}
	return "/"
}

// redirect issues a 303 to path?query#form-<id>.
func redirect(w http.ResponseWriter, r *http.Request, path string, q url.Values, formID string) {
	u := url.URL{Path: path, Fragment: "form-" + formID}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}
