package view

import (
	"net/http"

	"github.com/yanizio/agencysite/internal/head"
	"github.com/yanizio/agencysite/internal/requestinfo"
)

// Context is the dot value of every page template.
//
//	{{ .Head.Title }}   {{ .Path }}   {{ .Data.Company.Name }}
//	{{ country .Info }} {{ widget "form/contact" (dict "state" .Data.Form) }}
type Context struct {
	Request  *http.Request
	Head     *head.Builder
	Info     *requestinfo.RequestInfo
	SiteName string
	Path     string
	Page     string // set by Render
	Status   int    // response status; 0 means 200
	Data     any
}

// NewContext builds a Context for r.  Info comes from the requestinfo
// middleware when it ran.
func NewContext(r *http.Request, siteName string, data any) *Context {
	return &Context{
		Request:  r,
		Head:     head.New(siteName),
		Info:     requestinfo.FromContext(r.Context()),
		SiteName: siteName,
		Path:     r.URL.Path,
		Data:     data,
	}
}

// Active reports whether the nav link for prefix should be highlighted.
func (c *Context) Active(prefix string) bool {
	if prefix == "/" {
		return c.Path == "/"
	}
	return c.Path == prefix || len(c.Path) > len(prefix) && c.Path[:len(prefix)+1] == prefix+"/"
}
