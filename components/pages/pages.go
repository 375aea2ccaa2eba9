// components/pages/pages.go
//
// Pages component – the static brochure pages assembled from the content
// catalogue: Home, About, Portfolio, and the 404 page.
package pages

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/agencysite/internal/component"
	"github.com/yanizio/agencysite/internal/content"
	"github.com/yanizio/agencysite/internal/routing"
)

// compile-time assertions
var (
	_ component.Component   = (*Comp)(nil)
	_ component.Initializer = (*Comp)(nil)
)

// Comp implements component.Component.
type Comp struct {
	env *component.Env
}

func (c *Comp) Name() string         { return "pages" }
func (c *Comp) Migrations() []string { return nil }

func (c *Comp) Init(env *component.Env) error {
	c.env = env
	return nil
}

func (c *Comp) Routes(r chi.Router) {
	r.Get("/", c.home)
	r.Get("/about", c.about)
	r.Get("/portfolio", c.portfolio)
	r.Get("/portfolio/{slug}", c.project)
	r.NotFound(c.notFound)
}

// Register component at package init.
func init() { component.Register(&Comp{}) }

/*──────────────────────────── data ────────────────────────────────────────*/

// HomeData is the dot.Data of pages/home.html.
type HomeData struct {
	Company      content.Company
	Stats        []content.Stat
	Categories   []content.Category
	Testimonials []content.Testimonial
	Process      []content.Step
}

// AboutData is the dot.Data of pages/about.html.
type AboutData struct {
	Company content.Company
	Years   string
	Team    []content.Member
	Values  []content.Value
	Stats   []content.Stat
}

// PortfolioData is the dot.Data of pages/portfolio.html.
type PortfolioData struct {
	Tabs     []content.Category
	Active   string
	Projects []content.Project
}

// ProjectData is the dot.Data of pages/project.html.
type ProjectData struct {
	Project content.Project
	Related []content.Project // same category, excluding Project
}

/*──────────────────────────── handlers ────────────────────────────────────*/

func (c *Comp) home(w http.ResponseWriter, r *http.Request) {
	cat := c.env.Catalog
	ctx := c.env.NewContext(r, "", HomeData{
		Company:      cat.Company(),
		Stats:        cat.Stats(),
		Categories:   cat.Categories(),
		Testimonials: cat.Testimonials(),
		Process:      cat.Process(),
	})
	ctx.Head.Description(cat.Company().Tagline)
	c.env.Render(w, ctx, "home")
}

func (c *Comp) about(w http.ResponseWriter, r *http.Request) {
	cat := c.env.Catalog
	co := cat.Company()
	ctx := c.env.NewContext(r, "About", AboutData{
		Company: co,
		Years:   content.YearsSince(co.Founded, time.Now().Year()),
		Team:    cat.Team(),
		Values:  cat.Values(),
		Stats:   cat.Stats(),
	})
	c.env.Render(w, ctx, "about")
}

func (c *Comp) portfolio(w http.ResponseWriter, r *http.Request) {
	cat := c.env.Catalog
	active := r.URL.Query().Get("category")
	if active == "" {
		active = content.AllProjects
	}
	known := active == content.AllProjects
	for _, t := range cat.ProjectCategories() {
		if t.Slug == active {
			known = true
		}
	}
	if !known {
		active = content.AllProjects
	}
	ctx := c.env.NewContext(r, "Portfolio", PortfolioData{
		Tabs:     cat.ProjectCategories(),
		Active:   active,
		Projects: cat.Projects(active),
	})
	c.env.Render(w, ctx, "portfolio")
}

// project shows one case study.  Non-canonical spellings of the slug
// redirect permanently to the canonical path.
func (c *Comp) project(w http.ResponseWriter, r *http.Request) {
	cat := c.env.Catalog
	p, ok := cat.Project(strings.ToLower(chi.URLParam(r, "slug")))
	if !ok {
		c.notFound(w, r)
		return
	}
	if canonical := routing.BuildPath("portfolio", p.Slug); r.URL.Path != canonical {
		http.Redirect(w, r, canonical, http.StatusMovedPermanently)
		return
	}

	var related []content.Project
	for _, o := range cat.Projects(p.Category) {
		if o.Slug != p.Slug {
			related = append(related, o)
		}
	}
	ctx := c.env.NewContext(r, p.Title, ProjectData{Project: p, Related: related})
	ctx.Head.Description(p.Summary)
	c.env.Render(w, ctx, "project")
}

func (c *Comp) notFound(w http.ResponseWriter, r *http.Request) {
	ctx := c.env.NewContext(r, "Page not found", nil)
	ctx.Status = http.StatusNotFound
	c.env.Render(w, ctx, "notfound")
}
