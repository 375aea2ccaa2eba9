// internal/contact/field.go
//
// Contact form field identifiers and value maps.
//
// Context
// -------
// The contact and inquiry forms share one closed set of fields.  Every
// lookup (validation rules, decoding, rendering) is keyed by the Field enum
// rather than by free-form strings, so a typo in a template or YAML file
// fails at load time instead of silently skipping validation.
//
// Notes
// -----
// • “department” is accepted as an alias of “service”; the contact page
//   labels the same select that way.
package contact

import (
	"sort"
	"strings"
)

// Field identifies one input of a contact or inquiry form.
type Field int

const (
	FieldName Field = iota
	FieldEmail
	FieldPhone
	FieldCompany
	FieldMessage
	FieldService
	FieldBudget
	FieldTimeline

	fieldCount // sentinel, keep last
)

// Fields lists every field in display order.
var Fields = []Field{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldCompany,
	FieldService,
	FieldBudget,
	FieldTimeline,
	FieldMessage,
}

var fieldNames = [fieldCount]string{
	FieldName:     "name",
	FieldEmail:    "email",
	FieldPhone:    "phone",
	FieldCompany:  "company",
	FieldMessage:  "message",
	FieldService:  "service",
	FieldBudget:   "budget",
	FieldTimeline: "timeline",
}

// String returns the submission key, e.g. "email".
func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "unknown"
	}
	return fieldNames[f]
}

// MarshalText lets Field act as a JSON object key.
func (f Field) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText parses a submission key.
func (f *Field) UnmarshalText(b []byte) error {
	v, ok := ParseField(string(b))
	if !ok {
		return &UnknownFieldError{Name: string(b)}
	}
	*f = v
	return nil
}

// ParseField maps a submission key (case-insensitive) to its Field.
func ParseField(s string) (Field, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "department" {
		return FieldService, true
	}
	for i, n := range fieldNames {
		if n == s {
			return Field(i), true
		}
	}
	return 0, false
}

// FormData maps fields to their current string values.  A missing key
// reads as "".
type FormData map[Field]string

// Blank returns FormData with every listed field set to "".
func Blank(fields []Field) FormData {
	d := make(FormData, len(fields))
	for _, f := range fields {
		d[f] = ""
	}
	return d
}

// Clone returns an independent copy.
func (d FormData) Clone() FormData {
	out := make(FormData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Strings converts to a plain string-keyed map (templates, JSON, actions).
func (d FormData) Strings() map[string]string {
	out := make(map[string]string, len(d))
	for k, v := range d {
		out[k.String()] = v
	}
	return out
}

// FieldErrors maps fields to their current error message.  "" means valid;
// an absent key means the field has not been validated yet.
type FieldErrors map[Field]string

// Any reports whether at least one field carries a message.
func (e FieldErrors) Any() bool {
	for _, msg := range e {
		if msg != "" {
			return true
		}
	}
	return false
}

// Failed returns the fields with a non-empty message, sorted by Field.
func (e FieldErrors) Failed() []Field {
	var out []Field
	for f, msg := range e {
		if msg != "" {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy.
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
