// internal/form/renderer.go
//
// Forms subsystem: HTML renderer.
//
// Context
//   Given a parsed FormDef and the current controller snapshot, this file
//   converts the definition into safe, accessible HTML markup.  It applies
//   HTML5 hints (required, maxlength, type), writes prefill values and
//   inline error messages, shows the failure banner or the success panel,
//   and injects the CSRF token, render timestamp, and honeypot inputs.
//
// Workflow
//   •  RenderForm looks up the FormDef by ID and writes each field via
//      writeField.
//   •  Values, errors, and validity classes come from contact.View, so the
//      page always mirrors the server-side state machine.
//   •  While Sending or Sent the submit button is disabled; the success
//      panel carries a dismiss button that posts to DismissAction.
//   •  The caller receives the final HTML as template.HTML so the surrounding
//      template does not double-escape the markup.
//
// Style
//   Output HTML is plain, no framework classes, so themes can style via
//   element selectors or class hooks.  Each input gets id="fld-{form}-{name}"
//   and is wrapped in <div class="form-field"> for consistent styling.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"time"

	"github.com/yanizio/agencysite/internal/contact"
)

// RenderOptions bundles optional parameters influencing HTML output.
type RenderOptions struct {
	// State is the controller snapshot.  The zero value renders a blank form.
	State contact.View
	// Action is the POST target; defaults to "/<form id>".
	Action string
	// DismissAction is the success-panel dismiss target; defaults to
	// Action + "/dismiss".
	DismissAction string
	// Now stamps render_ts; defaults to time.Now.
	Now func() time.Time
	// Tokens issues the CSRF token; nil means the process-wide key.
	Tokens *Tokens
}

// RenderForm returns the HTML markup for the specified form ID.
// Callers typically pass the resulting template.HTML into a widget response.
func RenderForm(formID string, opts RenderOptions) (template.HTML, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return "", fmt.Errorf("RenderForm: unknown form %q", formID)
	}
	return fd.Render(opts)
}

// Render is the method form of RenderForm.
func (fd *FormDef) Render(opts RenderOptions) (template.HTML, error) {
	if opts.Action == "" {
		opts.Action = "/" + fd.ID
	}
	if opts.DismissAction == "" {
		opts.DismissAction = opts.Action + "/dismiss"
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	st := opts.State

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<form class="site-form" id="form-%s" method="post" action="%s" novalidate data-status="%s">`+"\n",
		esc(fd.ID), esc(opts.Action), esc(st.Status.String()))

	if fd.Title != "" {
		buf.WriteString(`<h3 class="form-title">` + esc(fd.Title) + `</h3>` + "\n")
	}
	if st.Banner != "" {
		buf.WriteString(`<div class="form-banner" role="alert">` + esc(st.Banner) + `</div>` + "\n")
	}
	if st.SuccessVisible {
		writeSuccess(&buf, fd, st, opts.DismissAction)
	}

	// Iterate fields in definition order.
	for _, f := range fd.Fields {
		if err := writeField(&buf, fd.ID, f, st); err != nil {
			return "", err
		}
	}

	// Hidden meta inputs.
	tokens := opts.Tokens
	if tokens == nil {
		tokens = defaults()
	}
	tok, err := tokens.Generate()
	if err != nil {
		return "", fmt.Errorf("RenderForm: csrf: %w", err)
	}
	fmt.Fprintf(&buf, `<input type="hidden" name="%s" value="%s">`+"\n", FieldCSRF, esc(tok))
	fmt.Fprintf(&buf, `<input type="hidden" name="%s" value="%d">`+"\n", FieldRenderTS, now().UnixMicro())
	fmt.Fprintf(&buf, `<div class="form-hp" aria-hidden="true"><label>Leave empty <input type="text" name="%s" tabindex="-1" autocomplete="off"></label></div>`+"\n", FieldHoneypot)

	label := fd.Submit
	if st.Loading {
		label = "Sending…"
	}
	buf.WriteString(`<button type="submit" class="form-submit"`)
	if st.SubmitDisabled {
		buf.WriteString(` disabled aria-disabled="true"`)
	}
	if st.Loading {
		buf.WriteString(` aria-busy="true"`)
	}
	buf.WriteString(`>` + esc(label) + `</button>` + "\n")

	buf.WriteString(`</form>`)
	return template.HTML(buf.String()), nil
}

// writeSuccess emits the success panel with its dismiss control.
func writeSuccess(buf *bytes.Buffer, fd *FormDef, st contact.View, dismiss string) {
	msg := fd.Success
	if msg == "" {
		msg = "Thank you!  Your message has been sent."
	}
	buf.WriteString(`<div class="form-success" role="status">` + "\n")
	buf.WriteString(`<p>` + esc(msg) + `</p>` + "\n")
	if st.Reference != "" {
		buf.WriteString(`<p class="form-reference">Reference: <code>` + esc(st.Reference) + `</code></p>` + "\n")
	}
	buf.WriteString(`<button type="submit" class="form-dismiss" formaction="` + esc(dismiss) + `" formnovalidate>Dismiss</button>` + "\n")
	buf.WriteString(`</div>` + "\n")
}

// writeField emits HTML for an individual field into buf, applying prefill,
// validation attributes, and the current error.
func writeField(buf *bytes.Buffer, formID string, f FieldDef, st contact.View) error {
	key := f.field.String()
	val := st.Values[key]
	errMsg := st.Errors[key]

	class := "form-field"
	switch st.Validity[key] {
	case contact.Valid.String():
		class += " is-valid"
	case contact.Invalid.String():
		if errMsg != "" {
			class += " is-invalid"
		}
	}
	buf.WriteString(`<div class="` + class + `">` + "\n")

	id := "fld-" + formID + "-" + key
	errID := id + "-error"

	// Label first (for accessibility)
	buf.WriteString(`<label for="` + esc(id) + `">` + esc(f.Label))
	if f.Required() {
		buf.WriteString(` <span class="req" aria-hidden="true">*</span>`)
	}
	buf.WriteString(`</label>` + "\n")

	common := `id="` + esc(id) + `" name="` + esc(f.Name) + `"`
	if f.Required() {
		common += ` required`
	}
	if errMsg != "" {
		common += ` aria-invalid="true" aria-describedby="` + esc(errID) + `"`
	}

	switch f.Type {
	case "text", "email", "tel":
		buf.WriteString(`<input ` + common + ` type="` + f.Type + `"`)
		if f.Placeholder != "" {
			buf.WriteString(` placeholder="` + esc(f.Placeholder) + `"`)
		}
		if f.MaxLength > 0 {
			buf.WriteString(` maxlength="` + strconv.Itoa(f.MaxLength) + `"`)
		}
		if val != "" {
			buf.WriteString(` value="` + esc(val) + `"`)
		}
		buf.WriteString(`>` + "\n")

	case "textarea":
		buf.WriteString(`<textarea ` + common)
		if f.Rows > 0 {
			buf.WriteString(` rows="` + strconv.Itoa(f.Rows) + `"`)
		}
		if f.MaxLength > 0 {
			buf.WriteString(` maxlength="` + strconv.Itoa(f.MaxLength) + `"`)
		}
		if f.Placeholder != "" {
			buf.WriteString(` placeholder="` + esc(f.Placeholder) + `"`)
		}
		buf.WriteString(`>` + esc(val) + `</textarea>` + "\n")

	case "select":
		buf.WriteString(`<select ` + common + `>` + "\n")
		empty := f.Placeholder
		if empty == "" {
			empty = "Select…"
		}
		sel := ""
		if val == "" {
			sel = ` selected`
		}
		buf.WriteString(`<option value=""` + sel + `>` + esc(empty) + `</option>` + "\n")
		for _, opt := range f.Options {
			sel = ""
			if val == opt {
				sel = ` selected`
			}
			buf.WriteString(`<option value="` + esc(opt) + `"` + sel + `>` + esc(opt) + `</option>` + "\n")
		}
		buf.WriteString(`</select>` + "\n")

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	// Error slot; empty span keeps layout stable.
	buf.WriteString(`<span class="error" id="` + esc(errID) + `" aria-live="polite">` + esc(errMsg) + `</span>` + "\n")

	buf.WriteString(`</div>` + "\n")
	return nil
}

func esc(s string) string { return html.EscapeString(s) }
