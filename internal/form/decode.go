package form

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/yanizio/agencysite/internal/contact"
)

// defaultMaxLen caps inputs whose definition sets no maxlength.
const defaultMaxLen = 1000

// Decode extracts the values of formID's fields from posted.  Keys the form
// does not declare are ignored.  Over-long values are cut at the field's
// maxlength, and a select value that is not one of its options decodes as
// "" so the required rule reports it.
func Decode(formID string, posted url.Values) (contact.FormData, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return nil, fmt.Errorf("form: unknown form %q", formID)
	}
	return fd.Decode(posted), nil
}

// Decode is the method form of the package-level Decode.
func (fd *FormDef) Decode(posted url.Values) contact.FormData {
	out := contact.Blank(fd.ContactFields())
	for _, f := range fd.Fields {
		raw, present := lookup(posted, f)
		if !present {
			continue
		}
		raw = strings.ReplaceAll(raw, "\r\n", "\n")
		if f.Type == "select" && !optionAllowed(f.Options, raw) {
			raw = ""
		}
		out[f.field] = truncate(raw, f.maxLen())
	}
	return out
}

// lookup accepts the definition's key, the canonical field name, and the
// field's aliases.
func lookup(posted url.Values, f FieldDef) (string, bool) {
	for _, key := range []string{f.Name, f.field.String()} {
		if vals, ok := posted[key]; ok && len(vals) > 0 {
			return vals[0], true
		}
	}
	for key, vals := range posted {
		if cf, ok := contact.ParseField(key); ok && cf == f.field && len(vals) > 0 {
			return vals[0], true
		}
	}
	return "", false
}

func (f FieldDef) maxLen() int {
	if f.MaxLength > 0 {
		return f.MaxLength
	}
	return defaultMaxLen
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func optionAllowed(opts []string, v string) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}
