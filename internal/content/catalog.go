// internal/content/catalog.go
//
// Brochure content: services, testimonials, team, portfolio, and stats.
//
// Context
// -------
// Every page of the site is built from one static Catalog.  The default
// catalogue is an embedded YAML document (data/site.yaml); operators may
// point `content.file` at their own copy.  The Catalog is read-only once
// loaded and shared by all requests.
//
// Notes
// -----
// • Slugs are derived with routing.MakeSlug when the YAML leaves them out.
package content

import "strings"

// Company is the agency's own contact card.
type Company struct {
	Name    string `yaml:"name"`
	Tagline string `yaml:"tagline"`
	Email   string `yaml:"email"`
	Phone   string `yaml:"phone"`
	Address string `yaml:"address"`
	Hours   string `yaml:"hours"`
	Founded int    `yaml:"founded"`
}

// Service is one offering inside a category.
type Service struct {
	Name     string   `yaml:"name"`
	Slug     string   `yaml:"slug"`
	Summary  string   `yaml:"summary"`
	Body     string   `yaml:"body"` // Markdown
	Features []string `yaml:"features"`
	Price    string   `yaml:"price"`
	Duration string   `yaml:"duration"`
}

// Category groups services under one tab.
type Category struct {
	Name     string    `yaml:"name"`
	Slug     string    `yaml:"slug"`
	Icon     string    `yaml:"icon"`
	Services []Service `yaml:"services"`
}

// Testimonial is a client quote.
type Testimonial struct {
	Quote   string `yaml:"quote"`
	Author  string `yaml:"author"`
	Role    string `yaml:"role"`
	Company string `yaml:"company"`
	Rating  int    `yaml:"rating"`
}

// Member is one person on the About page.
type Member struct {
	Name   string   `yaml:"name"`
	Role   string   `yaml:"role"`
	Bio    string   `yaml:"bio"` // Markdown
	Skills []string `yaml:"skills"`
}

// Project is a portfolio entry.  Category holds a category slug.
type Project struct {
	Title    string   `yaml:"title"`
	Slug     string   `yaml:"slug"`
	Category string   `yaml:"category"`
	Client   string   `yaml:"client"`
	Year     int      `yaml:"year"`
	Summary  string   `yaml:"summary"`
	Results  []string `yaml:"results"`
	Tags     []string `yaml:"tags"`
}

// Stat is a headline number ("250+ projects delivered").
type Stat struct {
	Label  string `yaml:"label"`
	Value  int64  `yaml:"value"`
	Suffix string `yaml:"suffix"`
}

// Value is one company value on the About page.
type Value struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Step is one stage of the delivery process.
type Step struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// document is the YAML layout of a catalogue file.
type document struct {
	Company           Company       `yaml:"company"`
	Categories        []Category    `yaml:"categories"`
	Testimonials      []Testimonial `yaml:"testimonials"`
	Team              []Member      `yaml:"team"`
	Projects          []Project     `yaml:"projects"`
	ProjectCategories []Category    `yaml:"project_categories"`
	Stats             []Stat        `yaml:"stats"`
	Values            []Value       `yaml:"values"`
	Process           []Step        `yaml:"process"`
	Budgets           []string      `yaml:"budgets"`
	Timelines         []string      `yaml:"timelines"`
}

// Catalog is the full content tree.  Accessors return the shared slices;
// callers must not modify them.
type Catalog struct {
	doc document
}

// AllProjects is the portfolio tab that disables filtering.
const AllProjects = "all"

func (c *Catalog) Company() Company { return c.doc.Company }
func (c *Catalog) Categories() []Category { return c.doc.Categories }
func (c *Catalog) Testimonials() []Testimonial { return c.doc.Testimonials }
func (c *Catalog) Team() []Member { return c.doc.Team }
func (c *Catalog) ProjectCategories() []Category { return c.doc.ProjectCategories }
func (c *Catalog) Stats() []Stat { return c.doc.Stats }
func (c *Catalog) Values() []Value { return c.doc.Values }
func (c *Catalog) Process() []Step { return c.doc.Process }
func (c *Catalog) Budgets() []string { return c.doc.Budgets }
func (c *Catalog) Timelines() []string { return c.doc.Timelines }

// ServiceNames returns every service name in catalogue order.
func (c *Catalog) ServiceNames() []string {
	var out []string
	for _, cat := range c.doc.Categories {
		for _, s := range cat.Services {
			out = append(out, s.Name)
		}
	}
	return out
}

// HasService reports whether name matches a service exactly.
func (c *Catalog) HasService(name string) bool {
	_, ok := c.Service(name)
	return ok
}

// Service returns the service called name.
func (c *Catalog) Service(name string) (Service, bool) {
	for _, cat := range c.doc.Categories {
		for _, s := range cat.Services {
			if s.Name == name {
				return s, true
			}
		}
	}
	return Service{}, false
}

// CategoryIndex returns the index of the service category with slug, or -1.
func (c *Catalog) CategoryIndex(slug string) int {
	for i, cat := range c.doc.Categories {
		if cat.Slug == slug {
			return i
		}
	}
	return -1
}

// Projects returns the projects whose Category equals slug.  An empty slug
// or AllProjects returns every project.  Matching ignores case.
func (c *Catalog) Projects(slug string) []Project {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" || slug == AllProjects {
		return append([]Project(nil), c.doc.Projects...)
	}
	var out []Project
	for _, p := range c.doc.Projects {
		if strings.ToLower(p.Category) == slug {
			out = append(out, p)
		}
	}
	return out
}

// Project returns the project with slug.
func (c *Catalog) Project(slug string) (Project, bool) {
	for _, p := range c.doc.Projects {
		if p.Slug == slug {
			return p, true
		}
	}
	return Project{}, false
}
