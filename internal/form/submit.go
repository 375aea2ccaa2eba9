// internal/form/submit.go
//
// Forms subsystem: consolidated POST helper.
//
// Context
//   Most handlers want one call that parses the POST body, runs the guard,
//   and returns decoded values.  ParsePost provides that convenience so
//   component code stays terse.  Field validation is not done here; the
//   contact.Controller owns it.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"net/http"

	"github.com/yanizio/agencysite/internal/contact"
)

// maxBody caps a form POST.
const maxBody = 64 << 10

// ParsePost parses r, checks the hidden inputs with g, and decodes formID's
// fields.  A *GuardError means the visitor should see a banner; any other
// error is a bad request.
func ParsePost(formID string, r *http.Request, g Guard) (contact.FormData, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return nil, fmt.Errorf("form: unknown form %q", formID)
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("form: parse: %w", err)
	}
	if err := g.Check(r.PostForm); err != nil {
		return nil, err
	}
	return fd.Decode(r.PostForm), nil
}
