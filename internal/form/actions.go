// internal/form/actions.go
//
// Forms subsystem: post-submit actions.
//
// Context
//   A FormDef may list actions.  ActionSender implements contact.Sender by
//   running them in definition order after the controller has validated
//   the submission:
//
//   •  store   – insert one `inquiry` row (synchronous).
//   •  webhook – POST signed JSON with retries (synchronous).
//   •  email   – enqueue a plain-text notification (asynchronous).
//
//   Synchronous actions decide the outcome: if one fails the visitor sees
//   the failure banner and can retry with their values intact.  A full mail
//   queue is logged and counted but never fails a submission whose record
//   is already stored.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/yanizio/agencysite/internal/contact"
	"github.com/yanizio/agencysite/internal/inquiry"
	"github.com/yanizio/agencysite/internal/logger"
	"github.com/yanizio/agencysite/internal/message"
	"github.com/yanizio/agencysite/internal/metrics"
)

// Store persists inquiries.  *inquiry.Repository implements it.
type Store interface {
	Insert(ctx context.Context, rec inquiry.Record) (int64, error)
}

// Poster delivers webhooks.  *message.WebhookClient implements it.
type Poster interface {
	Post(ctx context.Context, url string, headers map[string]string, payload any) error
}

// Mailer queues e-mail.  *message.Queue implements it.
type Mailer interface {
	Enqueue(ctx context.Context, msg message.Email) error
}

// ActionSender runs a form's actions.  Nil collaborators make the matching
// action a logged no-op, so a site without a database can still use the
// webhook and e-mail actions.
type ActionSender struct {
	Store   Store
	Webhook Poster
	Mail    Mailer

	WebhookURL string   // default target when the action sets no url
	MailTo     []string // default recipients when the action sets no to

	Log *zap.SugaredLogger
}

var _ contact.Sender = (*ActionSender)(nil)

// WebhookPayload is the JSON body posted by webhook actions.
type WebhookPayload struct {
	Reference   string            `json:"reference"`
	Form        string            `json:"form"`
	Fields      map[string]string `json:"fields"`
	SubmittedAt string            `json:"submitted_at"`
	Source      map[string]string `json:"source,omitempty"`
}

var plain = bluemonday.StrictPolicy()

// Send implements contact.Sender.
func (s *ActionSender) Send(ctx context.Context, sub contact.Submission) (contact.Ack, error) {
	fd, ok := GetFormDef(sub.FormID)
	if !ok {
		return contact.Ack{}, fmt.Errorf("form: unknown form %q", sub.FormID)
	}
	ack := contact.NewAck()
	clean := sanitize(sub.Data)

	for _, ac := range fd.Actions {
		var err error
		switch ac.Type {
		case "store":
			err = s.runStore(ctx, ack, sub)
		case "webhook":
			err = s.runWebhook(ctx, ac, ack, sub, clean)
		case "email":
			s.runEmail(ctx, fd, ac, ack, sub, clean)
		}
		if err != nil {
			metrics.ActionErrorsTotal.WithLabelValues(fd.ID, ac.Type).Inc()
			s.logger(ctx).Errorw("form action failed", "form", fd.ID, "action", ac.Type, "reference", ack.Reference, "err", err)
			return contact.Ack{}, fmt.Errorf("%s action: %w", ac.Type, err)
		}
	}
	return ack, nil
}

// -----------------------------------------------------------------------------
// Store action
// -----------------------------------------------------------------------------

func (s *ActionSender) runStore(ctx context.Context, ack contact.Ack, sub contact.Submission) error {
	if s.Store == nil {
		s.logger(ctx).Debugw("store action skipped, no database", "form", sub.FormID)
		return nil
	}
	rec, err := inquiry.FromSubmission(ack.Reference, sub)
	if err != nil {
		return err
	}
	_, err = s.Store.Insert(ctx, rec)
	return err
}

// -----------------------------------------------------------------------------
// Webhook action
// -----------------------------------------------------------------------------

func (s *ActionSender) runWebhook(ctx context.Context, ac ActionDef, ack contact.Ack, sub contact.Submission, clean map[string]string) error {
	url := ac.Param("url")
	if url == "" {
		url = s.WebhookURL
	}
	if url == "" || s.Webhook == nil {
		s.logger(ctx).Debugw("webhook action skipped, no target", "form", sub.FormID)
		return nil
	}

	headers := map[string]string{"X-Form-ID": sub.FormID}
	for k, v := range ac.Params {
		if strings.HasPrefix(k, "header.") {
			headers[strings.TrimPrefix(k, "header.")] = fmt.Sprint(v)
		}
	}

	payload := WebhookPayload{
		Reference:   ack.Reference,
		Form:        sub.FormID,
		Fields:      clean,
		SubmittedAt: sub.SubmittedAt.Format("2006-01-02T15:04:05Z07:00"),
		Source:      sourceOf(sub.Meta),
	}
	return s.Webhook.Post(ctx, url, headers, payload)
}

func sourceOf(m contact.Meta) map[string]string {
	out := map[string]string{}
	add := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	add("country", m.Country)
	add("referrer", m.Referrer)
	add("utm_source", m.UTMSource)
	add("utm_medium", m.UTMMedium)
	add("utm_campaign", m.UTMCampaign)
	return out
}

// -----------------------------------------------------------------------------
// Email action
// -----------------------------------------------------------------------------

func (s *ActionSender) runEmail(ctx context.Context, fd *FormDef, ac ActionDef, ack contact.Ack, sub contact.Submission, clean map[string]string) {
	to := recipients(ac.Params["to"])
	if len(to) == 0 {
		to = s.MailTo
	}
	if len(to) == 0 || s.Mail == nil {
		s.logger(ctx).Debugw("email action skipped, no recipients", "form", fd.ID)
		return
	}

	subject := ac.Param("subject")
	if subject == "" {
		subject = "Form submission: " + fd.Title
	}
	if name := clean[contact.FieldName.String()]; name != "" {
		subject += " from " + name
	}

	msg := message.Email{
		To:      to,
		ReplyTo: clean[contact.FieldEmail.String()],
		Subject: subject,
		Text:    emailBody(fd, ack, sub, clean),
	}
	if err := s.Mail.Enqueue(ctx, msg); err != nil {
		metrics.ActionErrorsTotal.WithLabelValues(fd.ID, "email").Inc()
		s.logger(ctx).Warnw("email action not queued", "form", fd.ID, "reference", ack.Reference, "err", err)
	}
}

func recipients(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func emailBody(fd *FormDef, ack contact.Ack, sub contact.Submission, clean map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reference: %s\n", ack.Reference)
	fmt.Fprintf(&b, "Received:  %s\n\n", sub.SubmittedAt.Format("2006-01-02 15:04 MST"))
	for _, f := range fd.Fields {
		v := clean[f.field.String()]
		if v == "" {
			continue
		}
		fmt.Fprintf(&b, "%s:\n%s\n\n", f.Label, v)
	}
	src := sourceOf(sub.Meta)
	if len(src) > 0 {
		keys := make([]string, 0, len(src))
		for k := range src {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("--\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %s\n", k, src[k])
		}
	}
	return b.String()
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// sanitize strips markup from every value before it leaves the process.
func sanitize(d contact.FormData) map[string]string {
	out := make(map[string]string, len(d))
	for f, v := range d {
		out[f.String()] = strings.TrimSpace(plain.Sanitize(v))
	}
	return out
}

func (s *ActionSender) logger(ctx context.Context) *zap.SugaredLogger {
	if s.Log != nil {
		return s.Log
	}
	return logger.FromContext(ctx)
}
