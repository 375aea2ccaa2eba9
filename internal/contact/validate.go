// internal/contact/validate.go
//
// Field validation rules.
//
// Context
// -------
// Validation is a pure function of (field, value).  Rules live in a fixed
// table indexed by Field, so adding a field without a rule is a visible
// change to this file rather than a silent map miss.
//
//   name     required, trimmed length ≥ 2
//   email    required, local@domain.tld
//   phone    optional, loose international pattern
//   message  required, trimmed length ≥ 10
//   service  required selection
//
// company, budget, and timeline are optional and unchecked.
package contact

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-().]{7,20}$`)
)

// Messages shown next to a field.  Exported so templates and tests agree.
const (
	MsgNameRequired    = "Name is required"
	MsgNameShort       = "Name must be at least 2 characters"
	MsgEmailRequired   = "Email is required"
	MsgEmailInvalid    = "Please enter a valid email address"
	MsgPhoneInvalid    = "Please enter a valid phone number"
	MsgMessageRequired = "Message is required"
	MsgMessageShort    = "Message must be at least 10 characters"
	MsgServiceRequired = "Please select a service"
)

type rule struct {
	required    bool
	requiredMsg string
	check       func(trimmed string) string // runs only on non-empty input
}

var rules = [fieldCount]rule{
	FieldName: {
		required:    true,
		requiredMsg: MsgNameRequired,
		check:       minRunes(2, MsgNameShort),
	},
	FieldEmail: {
		required:    true,
		requiredMsg: MsgEmailRequired,
		check:       matches(emailPattern, MsgEmailInvalid),
	},
	FieldPhone: {
		check: phone,
	},
	FieldMessage: {
		required:    true,
		requiredMsg: MsgMessageRequired,
		check:       minRunes(10, MsgMessageShort),
	},
	FieldService: {
		required:    true,
		requiredMsg: MsgServiceRequired,
	},
	FieldCompany:  {},
	FieldBudget:   {},
	FieldTimeline: {},
}

// Validate returns the error message for value in field, or "" when valid.
// Required fields reject whitespace-only input.
func Validate(f Field, value string) string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	r := rules[f]
	v := strings.TrimSpace(value)
	if v == "" {
		if r.required {
			return r.requiredMsg
		}
		return ""
	}
	if r.check == nil {
		return ""
	}
	return r.check(v)
}

// Required reports whether f must be filled in.
func Required(f Field) bool {
	if f < 0 || f >= fieldCount {
		return false
	}
	return rules[f].required
}

// ValidateAll validates every field in fields against data and returns a
// complete FieldErrors map (one key per field).
func ValidateAll(data FormData, fields []Field) FieldErrors {
	errs := make(FieldErrors, len(fields))
	for _, f := range fields {
		errs[f] = Validate(f, data[f])
	}
	return errs
}

// Validity is the derived, tri-state view of a field.
type Validity int

const (
	Unknown Validity = iota // empty or untouched
	Valid
	Invalid
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// CheckValidity returns Unknown for empty input, otherwise Valid or Invalid.
func CheckValidity(f Field, value string) Validity {
	if strings.TrimSpace(value) == "" {
		return Unknown
	}
	if Validate(f, value) != "" {
		return Invalid
	}
	return Valid
}

//
// rule helpers
//

func minRunes(n int, msg string) func(string) string {
	return func(s string) string {
		if utf8.RuneCountInString(s) < n {
			return msg
		}
		return ""
	}
}

func matches(re *regexp.Regexp, msg string) func(string) string {
	return func(s string) string {
		if !re.MatchString(s) {
			return msg
		}
		return ""
	}
}

// phone accepts the loose pattern and additionally wants at least seven
// digits so strings like "(((---)))" are refused.
func phone(s string) string {
	if !phonePattern.MatchString(s) {
		return MsgPhoneInvalid
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 7 {
		return MsgPhoneInvalid
	}
	return ""
}
