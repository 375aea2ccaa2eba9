// internal/form/guard.go
//
// Forms subsystem: submission guard.
//
// Context
//   The renderer outputs a CSRF token, a render timestamp, and an empty
//   honeypot input.  Before any field is looked at, a POST must prove it
//   came from one of our pages, was not filled by a script in under
//   MinFill, and is not older than MaxAge.  Failures are user errors: the
//   page re-renders with Message as the banner.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"net/url"
	"strconv"
	"time"
)

// Hidden input names written by the renderer.
const (
	FieldCSRF     = "csrf_token"
	FieldRenderTS = "render_ts"
	FieldHoneypot = "website"
)

// GuardError is a rejected POST.
type GuardError struct {
	Reason  string // token, timing, honeypot
	Message string // user-facing banner
	Err     error
}

func (e *GuardError) Error() string { return "form: guard rejected (" + e.Reason + "): " + e.Err.Error() }
func (e *GuardError) Unwrap() error { return e.Err }

// IsGuardError reports whether err is a *GuardError.
func IsGuardError(err error) bool {
	var ge *GuardError
	return errors.As(err, &ge)
}

// Guard checks the hidden inputs of a posted form.
type Guard struct {
	Tokens  *Tokens       // nil means the process-wide default
	MinFill time.Duration // 0 disables the too-fast check
	MaxAge  time.Duration // 0 means 30 minutes
	Now     func() time.Time
}

// TokenSource returns the Tokens Check verifies against.  Every token meant
// for this guard, rendered or handed to an API client, comes from here.
func (g Guard) TokenSource() *Tokens {
	if g.Tokens != nil {
		return g.Tokens
	}
	return defaults()
}

// Check returns nil when posted passes every test.
func (g Guard) Check(posted url.Values) error {
	if err := g.TokenSource().Verify(posted.Get(FieldCSRF)); err != nil {
		return &GuardError{Reason: "token", Message: "Security token invalid.  Please refresh and try again.", Err: err}
	}
	if posted.Get(FieldHoneypot) != "" {
		return &GuardError{Reason: "honeypot", Message: "Your message could not be accepted.", Err: errors.New("honeypot filled")}
	}
	if msg, err := g.checkTiming(posted.Get(FieldRenderTS)); err != nil {
		return &GuardError{Reason: "timing", Message: msg, Err: err}
	}
	return nil
}

// checkTiming ensures the form was not submitted suspiciously fast or too
// late.
func (g Guard) checkTiming(tsRaw string) (string, error) {
	if tsRaw == "" {
		return "Timestamp missing.  Please reload the page.", errors.New("render_ts missing")
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return "Bad timestamp.  Please retry.", err
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	maxAge := g.MaxAge
	if maxAge <= 0 {
		maxAge = 30 * time.Minute
	}
	delta := now().Sub(time.UnixMicro(ts))
	switch {
	case delta < g.MinFill:
		return "Form submitted too quickly.  Please enter the fields manually.", errors.New("submitted too fast")
	case delta > maxAge:
		return "Form expired.  Please reload and submit again.", errors.New("form expired")
	default:
		return "", nil
	}
}

// ReasonMessage returns banner text for a GuardError.Reason carried across
// a redirect (e.g. ?notice=token).  Unknown reasons yield "".
func ReasonMessage(reason string) string {
	switch reason {
	case "token":
		return "Security token invalid.  Please refresh and try again."
	case "timing":
		return "That was quick, or the page was open too long.  Please submit again."
	case "honeypot":
		return "Your message could not be accepted."
	default:
		return ""
	}
}
