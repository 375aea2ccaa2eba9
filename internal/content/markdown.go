// internal/content/markdown.go
//
// Markdown and number formatting for templates.
//
// Context
// -------
// Long-form copy (service bodies, team bios) is Markdown in the catalogue.
// It is converted with goldmark and then passed through a bluemonday UGC
// policy before it reaches html/template as trusted HTML.
//
// Notes
// -----
// • The converter and policy are package singletons; both are safe for
//   concurrent use once built.
package content

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md     = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy = bluemonday.UGCPolicy()
)

// Markdown renders src to sanitised HTML.  Conversion errors fall back to
// the escaped source text.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// Sanitize strips every tag from s.  Used for free-text input that is
// echoed into notifications.
func Sanitize(s string) string {
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(s))
}

// FormatStat renders a stat value the way the home page shows it:
// 4200000 → "4.2M", 250 → "250".
func FormatStat(s Stat) string {
	var n string
	if s.Value >= 1_000_000 {
		v, unit := humanize.ComputeSI(float64(s.Value))
		n = humanize.FtoaWithDigits(v, 1) + strings.ToUpper(unit)
	} else {
		n = humanize.Comma(s.Value)
	}
	return n + s.Suffix
}

// YearsSince renders "10 years" style durations for the About page.
func YearsSince(founded, now int) string {
	if founded <= 0 || now < founded {
		return ""
	}
	n := now - founded
	if n == 1 {
		return "1 year"
	}
	return humanize.Comma(int64(n)) + " years"
}
