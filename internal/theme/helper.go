//
//  internal/theme/helper.go
//
//  Theme functions that expose RequestInfo fields and catalogue
//  formatting with short, ergonomic names.  These helpers prevent HTML
//  authors from poking through nested structs repeatedly:
//
//	{{ browser .Info }} on {{ os .Info }}
//	{{ with country .Info }}Hello from {{ . }}{{ end }}
//	{{ markdown .Data.Body }}  {{ stat . }}
//

package theme

import (
	"html/template"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/yanizio/agencysite/internal/content"
	"github.com/yanizio/agencysite/internal/requestinfo"
)

// FuncMap returns the theme function map.  asset resolves asset paths.
func FuncMap(asset func(string) string) template.FuncMap {
	return template.FuncMap{
		// Asset helper
		"asset": asset,

		// Geo helpers
		"clientIP": func(i *requestinfo.RequestInfo) string {
			if i == nil || i.Geo.IP == nil {
				return ""
			}
			return i.Geo.IP.String()
		},
		"country": func(i *requestinfo.RequestInfo) string {
			if i == nil {
				return ""
			}
			return i.Geo.CountryISO
		},
		"city": func(i *requestinfo.RequestInfo) string {
			if i == nil {
				return ""
			}
			return i.Geo.City
		},

		// UA helpers
		"browser": func(i *requestinfo.RequestInfo) string {
			if i == nil {
				return ""
			}
			return i.UA.Browser
		},
		"browserVersion": func(i *requestinfo.RequestInfo) string {
			if i == nil {
				return ""
			}
			return i.UA.Version
		},
		"os": func(i *requestinfo.RequestInfo) string {
			if i == nil {
				return ""
			}
			return i.UA.OS
		},
		"device": func(i *requestinfo.RequestInfo) string {
			if i == nil {
				return ""
			}
			return i.UA.Device
		},
		"isBot": func(i *requestinfo.RequestInfo) bool {
			return i != nil && i.UA.IsBot
		},

		// URL helper
		"url": func(i *requestinfo.RequestInfo) *url.URL {
			if i == nil {
				return nil
			}
			return i.URL
		},

		// Content helpers
		"markdown": content.Markdown,
		"stat":     content.FormatStat,
		"years": func(founded int) string {
			return content.YearsSince(founded, time.Now().Year())
		},
		"comma": func(n int) string { return humanize.Comma(int64(n)) },
		"year":  func() int { return time.Now().Year() },
		"add":   func(a, b int) int { return a + b },
	}
}
