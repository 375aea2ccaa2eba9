// internal/form/widget.go
//
// Forms subsystem: widget integration.
//
// Context
//   Templates embed form markup through the widget system:
//
//       {{ widget "form/contact" (dict "state" .Data.Form "action" "/contact") }}
//
//   This adapter wraps RenderForm and always returns CacheSkip so pages
//   never cache CSRF tokens.
//
//------------------------------------------------------------------------------

package form

import (
	"github.com/yanizio/agencysite/internal/contact"
	"github.com/yanizio/agencysite/internal/widget"
)

// WidgetPrefix namespaces form widgets.
const WidgetPrefix = "form/"

// Ensure compile-time compliance with widget.Widget.
var _ widget.Widget = (*formWidget)(nil)

type formWidget struct{ id string }

// ID implements widget.Widget.
func (w *formWidget) ID() string { return WidgetPrefix + w.id }

// Render converts the FormDef into HTML.  params may include:
//
//   - "state"   contact.View – controller snapshot (values, errors, banner)
//   - "action"  string       – POST target
//   - "dismiss" string       – success-panel dismiss target
//   - "tokens"  *Tokens      – CSRF issuer matching the handler's Guard
//
// It always returns widget.CacheSkip so every render gets a fresh token.
func (w *formWidget) Render(_ any, params map[string]any) (string, widget.CachePolicy, error) {
	var opts RenderOptions
	if params != nil {
		if st, ok := params["state"].(contact.View); ok {
			opts.State = st
		}
		if a, ok := params["action"].(string); ok {
			opts.Action = a
		}
		if d, ok := params["dismiss"].(string); ok {
			opts.DismissAction = d
		}
		if t, ok := params["tokens"].(*Tokens); ok {
			opts.Tokens = t
		}
	}

	htmlOut, err := RenderForm(w.id, opts)
	if err != nil {
		return "", widget.CacheSkip, err
	}
	return string(htmlOut), widget.CacheSkip, nil
}

// injectWidgetRegistration is called by definition.go after each FormDef loads.
func injectWidgetRegistration(fd *FormDef) { widget.Register(&formWidget{id: fd.ID}) }
