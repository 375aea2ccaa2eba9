// modules/debug/debug.go
//
// Diagnostic module that echoes the parsed request info, the caller's
// visitor state, and selected config.  Only answers when `debug: true`.
package debug

import (
	"encoding/json"
	"net/http"

	"github.com/yanizio/agencysite/internal/component"
	"github.com/yanizio/agencysite/internal/form"
	"github.com/yanizio/agencysite/internal/module"
	"github.com/yanizio/agencysite/internal/requestinfo"
	"github.com/yanizio/agencysite/internal/session"
)

// recentInquiries is how many stored references are listed per form.
const recentInquiries = 5

func init() {
	// Register at exact path /debug/request
	module.Register("/debug/request", handler)
}

// handler writes a JSON blob with selected context fields.
func handler(env *component.Env, w http.ResponseWriter, r *http.Request) {
	if !env.Debug() {
		http.NotFound(w, r)
		return
	}

	out := map[string]any{
		"path":     r.URL.Path,
		"query":    r.URL.RawQuery,
		"remote":   r.RemoteAddr,
		"ua":       r.UserAgent(),
		"visitors": env.Visitors.Len(),
	}
	if ri := requestinfo.FromContext(r.Context()); ri != nil {
		out["info"] = ri
		out["meta"] = ri.Meta()
	}
	if v := session.FromContext(r.Context()); v != nil {
		forms := map[string]any{}
		for _, id := range v.Forms() {
			if c, err := v.Form(id); err == nil {
				forms[id] = c.Snapshot()
			}
		}
		out["visitor"] = map[string]any{
			"id":       v.ID,
			"category": v.Selector.ActiveIndex(),
			"selected": v.Selector.Selected(),
			"forms":    forms,
		}
	}
	if env.Config != nil {
		out["config"] = map[string]any{
			"contact_mode": env.Config.Contact.Mode,
			"database":     env.Config.Database.Enabled,
			"mail":         env.Config.Mail.Transport,
			"aliases":      len(env.Config.Routes.Aliases),
		}
	}

	if env.Inquiries != nil {
		stored := map[string]any{}
		for _, id := range form.IDs() {
			n, err := env.Inquiries.Count(r.Context(), id)
			if err != nil {
				stored[id] = map[string]string{"error": err.Error()}
				continue
			}
			refs := []string{}
			if recent, err := env.Inquiries.Recent(r.Context(), id, recentInquiries); err == nil {
				for _, rec := range recent {
					refs = append(refs, rec.Reference)
				}
			}
			stored[id] = map[string]any{"count": n, "recent": refs}
		}
		out["inquiries"] = stored
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
