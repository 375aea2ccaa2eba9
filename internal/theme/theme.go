// Package theme holds the data structures that describe one visual theme.
// A Theme combines:
//
//   - Name      – the theme directory name (for example, “default”).
//   - FS        – the theme tree (layout.html, partials/, pages/, assets/).
//   - Base      – layout and partials parsed once, never executed; the view
//     engine clones it per page.
//   - AssetFunc – helper injected into templates so they can resolve
//     `{{ asset "css/site.css" }}` to a URL.
package theme

import (
	"html/template"
	"io/fs"
	"net/http"
	"path"
)

// Theme is returned by the Manager once layout and partials are parsed.
type Theme struct {
	Name      string
	FS        fs.FS
	Base      *template.Template
	AssetFunc func(string) string
}

// AssetPrefix is the URL prefix under which theme assets are served.
func AssetPrefix(name string) string { return "/themes/" + name + "/assets/" }

// New constructs a Theme with an AssetFunc that points to the assets folder.
func New(name string, fsys fs.FS, base *template.Template) *Theme {
	prefix := AssetPrefix(name)
	return &Theme{
		Name: name,
		FS:   fsys,
		Base: base,
		AssetFunc: func(p string) string {
			return prefix + path.Clean("/" + p)[1:]
		},
	}
}

// PageFile is the theme-relative path of a page template.
func (t *Theme) PageFile(page string) string { return "pages/" + page + ".html" }

// HasPage reports whether the theme ships a template for page.
func (t *Theme) HasPage(page string) bool {
	_, err := fs.Stat(t.FS, t.PageFile(page))
	return err == nil
}

// AssetHandler serves the theme's assets/ directory.  Mount it at
// AssetPrefix(t.Name) with the prefix stripped.
func (t *Theme) AssetHandler() http.Handler {
	sub, err := fs.Sub(t.FS, "assets")
	if err != nil {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(sub))
}
