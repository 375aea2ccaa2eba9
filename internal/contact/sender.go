// internal/contact/sender.go
//
// Submission delivery.
//
// Context
// -------
// The controller hands a validated snapshot to a Sender and waits for the
// result.  The reference site has no intake backend, so the default Sender
// is Simulated: it waits a fixed delay and always succeeds.  Real delivery
// (database row, webhook, e-mail) plugs in through the same interface; see
// form.ActionSender.
package contact

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultSendDelay mirrors the artificial latency of the simulated backend.
const DefaultSendDelay = 1500 * time.Millisecond

// Meta describes where a submission came from.  All fields are best-effort.
type Meta struct {
	IP          string
	UserAgent   string
	Browser     string
	Device      string
	Country     string
	Referrer    string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
}

// Submission is the immutable snapshot delivered to a Sender.
type Submission struct {
	FormID      string
	Data        FormData
	Meta        Meta
	SubmittedAt time.Time
}

// Ack confirms a delivered submission.
type Ack struct {
	Reference  string    `json:"reference"`
	ReceivedAt time.Time `json:"received_at"`
}

// Sender delivers a submission.  Implementations must honour ctx.
type Sender interface {
	Send(ctx context.Context, sub Submission) (Ack, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, sub Submission) (Ack, error)

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, sub Submission) (Ack, error) { return f(ctx, sub) }

// Simulated waits Delay and acknowledges with a fresh reference.
type Simulated struct {
	Delay time.Duration
}

// Send implements Sender.
func (s Simulated) Send(ctx context.Context, _ Submission) (Ack, error) {
	t := time.NewTimer(s.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return Ack{}, ctx.Err()
	case <-t.C:
	}
	return NewAck(), nil
}

// NewAck returns an Ack stamped now with a random reference.
func NewAck() Ack {
	return Ack{Reference: uuid.NewString(), ReceivedAt: time.Now().UTC()}
}
