// internal/message/email.go
//
// Outbound e-mail transports.
//
// Context
// -------
// Form actions enqueue e-mails (see queue.go); a worker hands each one to a
// Transport.  Two transports ship:
//
//   - LogTransport  – writes the envelope to the structured log.  Default
//     for development and the reference deployment.
//   - SMTPTransport – plain-text delivery through an SMTP relay.
package message

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Email represents a basic outbound email job.
type Email struct {
	To      []string
	ReplyTo string
	Subject string
	Text    string
}

// Transport delivers one e-mail.
type Transport interface {
	Send(ctx context.Context, msg Email) error
}

// LogTransport logs the payload instead of sending it.
type LogTransport struct {
	Log *zap.SugaredLogger
}

// Send implements Transport.
func (t LogTransport) Send(_ context.Context, msg Email) error {
	log := t.Log
	if log == nil {
		log = zap.S()
	}
	log.Infow("email (log transport)",
		"to", msg.To, "reply_to", msg.ReplyTo, "subject", msg.Subject, "len", len(msg.Text))
	return nil
}

// SMTPTransport sends through an SMTP relay with optional PLAIN auth.
type SMTPTransport struct {
	Addr     string // host:port
	Username string
	Password string
	From     string
}

// Send implements Transport.  smtp.SendMail has no context support, so ctx
// is only checked before dialling.
func (t SMTPTransport) Send(ctx context.Context, msg Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return errors.New("message: email has no recipients")
	}
	var auth smtp.Auth
	if t.Username != "" {
		host, _, err := net.SplitHostPort(t.Addr)
		if err != nil {
			return fmt.Errorf("message: smtp addr: %w", err)
		}
		auth = smtp.PlainAuth("", t.Username, t.Password, host)
	}
	return smtp.SendMail(t.Addr, auth, t.From, msg.To, t.compose(msg, time.Now()))
}

func (t SMTPTransport) compose(msg Email, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", t.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", headerSafe(msg.ReplyTo))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", headerSafe(msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Text, "\n", "\r\n"))
	return []byte(b.String())
}

// headerSafe strips CR and LF so user input cannot inject headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
