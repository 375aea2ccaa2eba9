// internal/routing/slug.go
//
// URL names for catalogue entries.
//
// Service categories, services, project categories and projects get a slug
// from their display name when site content leaves one out.  Portfolio
// project pages live at /portfolio/<slug>, so the same title must always
// produce the same slug across restarts.
//
//   "SEO & Content"        → "seo-and-content"
//   "Café Brûlée Rebrand"  → "cafe-brulee-rebrand"
//   "Aroha's Bakery"       → "arohas-bakery"
//
// Accents are folded to their base letter.  Other scripts are dropped, and
// a name with nothing left becomes "item".

package routing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLen caps a generated slug, in bytes (slugs are ASCII).
const MaxSlugLen = 80

// fallbackSlug stands in for a name with no usable letters.
const fallbackSlug = "item"

// MakeSlug turns a display name into a lower-case, dash-separated ASCII
// slug.
func MakeSlug(name string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '&':
			if b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteString("and")
			pendingDash = true
		case r == '\'' || r == '’':
			// "Aroha's" stays one word.
		default:
			pendingDash = true
		}
	}

	slug := b.String()
	if len(slug) > MaxSlugLen {
		slug = slug[:MaxSlugLen]
		if i := strings.LastIndexByte(slug, '-'); i > MaxSlugLen/2 {
			slug = slug[:i]
		}
		slug = strings.TrimRight(slug, "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// BuildPath returns the site path for slug under section, e.g.
// BuildPath("portfolio", "harbour-freight-portal") is
// "/portfolio/harbour-freight-portal".  Stray slashes on either side are
// ignored.
func BuildPath(section, slug string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{section, slug} {
		if p = strings.Trim(p, "/"); p != "" {
			parts = append(parts, p)
		}
	}
	return "/" + strings.Join(parts, "/")
}
