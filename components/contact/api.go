package contact

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	formstate "github.com/yanizio/agencysite/internal/contact"
	"github.com/yanizio/agencysite/internal/form"
	"github.com/yanizio/agencysite/internal/logger"
	"github.com/yanizio/agencysite/internal/requestinfo"
)

// CSRFHeader carries the token for API writes.
const CSRFHeader = "X-CSRF-Token"

// maxJSON caps an API request body.
const maxJSON = 64 << 10

type stateResponse struct {
	State     formstate.View `json:"state"`
	CSRFToken string         `json:"csrf_token,omitempty"`
}

type fieldRequest struct {
	Value string `json:"value"`
	Event string `json:"event"` // change (default) or blur
}

type fieldResponse struct {
	Field    string         `json:"field"`
	Message  string         `json:"message"`
	Validity string         `json:"validity"`
	State    formstate.View `json:"state"`
}

type submitRequest struct {
	Values map[string]string `json:"values"`
}

type submitResponse struct {
	Ack   *formstate.Ack    `json:"ack,omitempty"`
	Error string            `json:"error,omitempty"`
	Field map[string]string `json:"fields,omitempty"`
	State formstate.View    `json:"state"`
}

// GET /api/forms/{form}
func (c *Component) apiState(w http.ResponseWriter, r *http.Request) {
	ctl, ok := c.controller(w, r, chi.URLParam(r, "form"))
	if !ok {
		return
	}
	tok, err := c.env.Guard.TokenSource().Generate()
	if err != nil {
		logger.FromContext(r.Context()).Errorw("csrf token generation failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, stateResponse{State: ctl.Snapshot(), CSRFToken: tok})
}

// POST /api/forms/{form}/fields/{field}
func (c *Component) apiField(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "form")
	ctl, ok := c.controller(w, r, formID)
	if !ok || !c.checkCSRF(w, r) {
		return
	}
	f, known := formstate.ParseField(chi.URLParam(r, "field"))
	fd, _ := form.GetFormDef(formID)
	if !known {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown field"})
		return
	}
	if _, inForm := fd.Lookup(f); !inForm {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown field"})
		return
	}

	var req fieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	// Run the value through the definition so length and option rules match
	// the HTML post.
	value := fd.Decode(url.Values{f.String(): {req.Value}})[f]

	var msg string
	var err error
	switch req.Event {
	case "", "change":
		if err = ctl.Change(f, value); err == nil {
			msg = ctl.Snapshot().Errors[f.String()]
		}
	case "blur":
		if err = ctl.Change(f, value); err == nil {
			msg, err = ctl.Blur(f)
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "event must be change or blur"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, fieldResponse{
		Field:    f.String(),
		Message:  msg,
		Validity: formstate.CheckValidity(f, value).String(),
		State:    ctl.Snapshot(),
	})
}

// POST /api/forms/{form}/submit
func (c *Component) apiSubmit(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "form")
	ctl, ok := c.controller(w, r, formID)
	if !ok || !c.checkCSRF(w, r) {
		return
	}
	fd, _ := form.GetFormDef(formID)

	var req submitRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
	}
	if len(req.Values) > 0 {
		posted := url.Values{}
		present := map[formstate.Field]bool{}
		for k, v := range req.Values {
			posted.Set(k, v)
			if f, ok := formstate.ParseField(k); ok {
				present[f] = true
			}
		}
		data := fd.Decode(posted)
		for f := range data {
			if !present[f] {
				delete(data, f)
			}
		}
		if err := ctl.Load(data); err != nil {
			writeJSON(w, http.StatusConflict, submitResponse{Error: err.Error(), State: ctl.Snapshot()})
			return
		}
	}

	ack, err := ctl.Submit(r.Context(), requestinfo.SubmissionMeta(r.Context()))
	var (
		ve *formstate.ValidationErrors
		se *formstate.SubmissionError
	)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, submitResponse{Ack: &ack, State: ctl.Snapshot()})
	case errors.As(err, &ve):
		fields := make(map[string]string)
		for _, f := range ve.Fields.Failed() {
			fields[f.String()] = ve.Fields[f]
		}
		writeJSON(w, http.StatusUnprocessableEntity, submitResponse{Error: "validation failed", Field: fields, State: ctl.Snapshot()})
	case errors.As(err, &se):
		writeJSON(w, http.StatusBadGateway, submitResponse{Error: se.Message, State: ctl.Snapshot()})
	case errors.Is(err, formstate.ErrBusy), errors.Is(err, formstate.ErrClosed):
		writeJSON(w, http.StatusConflict, submitResponse{Error: err.Error(), State: ctl.Snapshot()})
	case errors.Is(err, r.Context().Err()):
		return
	default:
		logger.FromContext(r.Context()).Errorw("api submit failed", "form", formID, "err", err)
		writeJSON(w, http.StatusInternalServerError, submitResponse{Error: "internal error", State: ctl.Snapshot()})
	}
}

// POST /api/forms/{form}/dismiss
func (c *Component) apiDismiss(w http.ResponseWriter, r *http.Request) {
	ctl, ok := c.controller(w, r, chi.URLParam(r, "form"))
	if !ok || !c.checkCSRF(w, r) {
		return
	}
	dismissed := ctl.Dismiss()
	writeJSON(w, http.StatusOK, map[string]any{"dismissed": dismissed, "state": ctl.Snapshot()})
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// checkCSRF verifies the header against the same Tokens apiState issues
// from.
func (c *Component) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	if err := c.env.Guard.TokenSource().Verify(r.Header.Get(CSRFHeader)); err != nil {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid csrf token"})
		return false
	}
	return true
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSON))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
