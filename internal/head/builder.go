// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page's
// <head> element.  It is scoped to a single request.  The view engine seeds
// site-wide defaults, page handlers push their own tags, and the layout
// decides where to emit each slice.
//
// Features
// --------
//   - SetTitle           – single <title> tag (last call wins), suffixed
//     with the site name.
//   - Description        – <meta name="description"> plus the matching
//     Open Graph tag.
//   - Canonical          – <link rel="canonical">.
//   - Meta, Link, Script – arbitrary tags with deduplication.
//   - JSONLD             – raw JSON-LD strings wrapped in
//     <script type="application/ld+json">…</script>.
package head

import (
	"html/template"
	"strings"
	"sync"
)

// Builder is safe for concurrent use.
type Builder struct {
	mu sync.Mutex

	siteName    string
	title       string
	description string

	metas   []string
	links   []string
	scripts []string
	jsonLD  []string

	seen map[string]struct{}
}

// New returns an empty Builder.  siteName is appended to page titles.
func New(siteName string) *Builder {
	return &Builder{siteName: siteName, seen: make(map[string]struct{})}
}

// ------------------------------------------------------------------
// Single-value helpers
// ------------------------------------------------------------------

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) {
	b.mu.Lock()
	b.title = t
	b.mu.Unlock()
}

// Title returns a fully formed <title> tag.  With no page title the site
// name alone is used.
func (b *Builder) Title() template.HTML {
	b.mu.Lock()
	t, site := b.title, b.siteName
	b.mu.Unlock()

	switch {
	case t == "" && site == "":
		return ""
	case t == "":
		t = site
	case site != "" && t != site:
		t = t + " | " + site
	}
	return template.HTML("<title>" + template.HTMLEscapeString(t) + "</title>")
}

// Description sets the page description and its og:description twin.
func (b *Builder) Description(d string) {
	b.mu.Lock()
	b.description = d
	b.mu.Unlock()
	esc := template.HTMLEscapeString(d)
	b.Meta(`<meta name="description" content="` + esc + `">`)
	b.Meta(`<meta property="og:description" content="` + esc + `">`)
}

// Canonical adds <link rel="canonical">.
func (b *Builder) Canonical(url string) {
	b.Link(`<link rel="canonical" href="` + template.HTMLEscapeString(url) + `">`)
}

// ------------------------------------------------------------------
// Slice helpers with deduplication
// ------------------------------------------------------------------

func (b *Builder) Meta(tag string)   { b.add("meta:"+tag, &b.metas, tag) }
func (b *Builder) Link(tag string)   { b.add("link:"+tag, &b.links, tag) }
func (b *Builder) Script(tag string) { b.add("script:"+tag, &b.scripts, tag) }
func (b *Builder) JSONLD(js string)  { b.add("jsonld:"+hash(js), &b.jsonLD, js) }

func (b *Builder) add(key string, tgt *[]string, tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

// hash creates a short, stable key for JSON-LD strings.
func hash(s string) string {
	if len(s) > 32 {
		return s[:32]
	}
	return s
}

// ------------------------------------------------------------------
// Rendering helpers called from the layout
// ------------------------------------------------------------------

func (b *Builder) Metas() template.HTML   { return b.concat(&b.metas) }
func (b *Builder) Links() template.HTML   { return b.concat(&b.links) }
func (b *Builder) Scripts() template.HTML { return b.concat(&b.scripts) }

// JSON returns all JSON-LD blocks wrapped in <script> tags.
func (b *Builder) JSON() template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.jsonLD) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, js := range b.jsonLD {
		sb.WriteString(`<script type="application/ld+json">`)
		sb.WriteString(js)
		sb.WriteString(`</script>`)
	}
	return template.HTML(sb.String())
}

// concat joins pre-escaped tags without a separator.
func (b *Builder) concat(sl *[]string) template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	return template.HTML(strings.Join(*sl, ""))
}
