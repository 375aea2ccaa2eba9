// internal/contact/controller.go
//
// Submission controller: the contact form state machine.
//
// Context
// -------
// One Controller backs one form instance (one visitor, one form).  It wraps
// the State holder with a mutex and drives the submission lifecycle:
//
//	Idle ──submit──▶ Validating ──errors──▶ Rejected ──submit──▶ Validating
//	                     │
//	                     └─ok─▶ Sending ──ack──▶ Sent ──timeout|dismiss──▶ Idle
//	                               │
//	                               └─failure─▶ Rejected (banner, values kept)
//
// Only one submission can be in flight.  Submit during Sending or Sent
// returns ErrBusy, which is the server-side form of a disabled submit
// button.
//
// Workflow
// --------
//   • Submit validates synchronously, then calls the Sender on a goroutine
//     bound to the controller lifetime, not to the caller.  If the caller
//     gives up (request cancelled) the send still completes and updates
//     state.
//   • The continuation is guarded by a generation counter and the closed
//     flag, so a Controller that was closed mid-send never mutates again.
//   • The success panel is a visibility.Panel whose exit effect returns the
//     controller to Idle.  Auto-dismiss defaults to five seconds.
//
// Notes
// -----
// • Lock order is Controller.mu → Panel.mu.  Panel effects run outside the
//   panel lock and may take Controller.mu.
package contact

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/agencysite/internal/visibility"
)

// DefaultDismissAfter is how long the success panel stays up on its own.
const DefaultDismissAfter = 5 * time.Second

// MsgSubmitFailed is the banner shown after a failed send.
const MsgSubmitFailed = "Sorry, we could not send your message.  Please try again."

// Status is the controller state.
type Status int

const (
	Idle Status = iota
	Validating
	Rejected
	Sending
	Sent
)

var statusNames = [...]string{"idle", "validating", "rejected", "sending", "sent"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// MarshalText renders the status as its name in JSON.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Submission outcomes reported to Options.Observe.
const (
	OutcomeSent     = "sent"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeBusy     = "busy"
)

// Options configure a Controller.  Zero values fall back to defaults.
type Options struct {
	FormID       string
	Fields       []Field // defaults to Fields
	Sender       Sender  // defaults to Simulated{DefaultSendDelay}
	DismissAfter time.Duration
	Logger       *zap.SugaredLogger

	// Observe, when set, is called once per Submit with the outcome and the
	// time spent (validation plus send).
	Observe func(formID, outcome string, elapsed time.Duration)

	// OnTransition, when set, is called under the controller lock on every
	// status change.  It must not call back into the controller.
	OnTransition func(from, to Status)
}

// Controller is safe for concurrent use.
type Controller struct {
	mu           sync.Mutex
	id           string
	state        *State
	status       Status
	sender       Sender
	dismissAfter time.Duration
	panel        *visibility.Panel
	lastAck      Ack
	submitErr    *SubmissionError
	closed       bool
	gen          uint64

	ctx    context.Context // controller lifetime; cancelled by Close
	cancel context.CancelFunc

	log          *zap.SugaredLogger
	observe      func(string, string, time.Duration)
	onTransition func(Status, Status)
}

// New returns an Idle controller with blank values.
func New(opts Options) *Controller {
	if len(opts.Fields) == 0 {
		opts.Fields = Fields
	}
	if opts.Sender == nil {
		opts.Sender = Simulated{Delay: DefaultSendDelay}
	}
	if opts.DismissAfter <= 0 {
		opts.DismissAfter = DefaultDismissAfter
	}
	if opts.Logger == nil {
		opts.Logger = zap.S()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:           opts.FormID,
		state:        NewState(opts.Fields),
		sender:       opts.Sender,
		dismissAfter: opts.DismissAfter,
		ctx:          ctx,
		cancel:       cancel,
		log:          opts.Logger,
		observe:      opts.Observe,
		onTransition: opts.OnTransition,
	}
	c.panel = visibility.New(visibility.Effects{OnExit: c.successHidden})
	return c
}

// ID returns the form identifier.
func (c *Controller) ID() string { return c.id }

/*──────────────────────────── input events ────────────────────────────────*/

// Change records a new value for f.  Touched fields are revalidated.
// ErrBusy is returned while Sending or Sent.
func (c *Controller) Change(f Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.inputLocked(); err != nil {
		return err
	}
	if !c.state.Has(f) {
		return &UnknownFieldError{Name: f.String()}
	}
	c.state.Change(f, value)
	return nil
}

// Blur marks f touched and returns its current message.
func (c *Controller) Blur(f Field) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.inputLocked(); err != nil {
		return "", err
	}
	if !c.state.Has(f) {
		return "", &UnknownFieldError{Name: f.String()}
	}
	return c.state.Blur(f), nil
}

// Load replaces every listed value, as if the user had typed them.  Used by
// non-script clients that post the whole form at once.
func (c *Controller) Load(data FormData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.inputLocked(); err != nil {
		return err
	}
	for f, v := range data {
		if !c.state.Has(f) {
			continue
		}
		c.state.Change(f, v)
	}
	return nil
}

// inputLocked reports whether the form takes input.  The fields are frozen
// while a send is in flight and while the success panel is up, so the form
// is blank when it returns to Idle.
func (c *Controller) inputLocked() error {
	switch {
	case c.closed:
		return ErrClosed
	case c.status == Sending || c.status == Sent:
		return ErrBusy
	default:
		return nil
	}
}

/*──────────────────────────── submission ──────────────────────────────────*/

// Submit validates the current values and, when they pass, delivers them
// through the Sender.  It blocks until the send finishes or ctx is done.
//
// Errors: *ValidationErrors (fields kept, nothing sent), *SubmissionError
// (send failed, fields kept), ErrBusy, ErrClosed, or ctx.Err() when the
// caller stopped waiting.  In the last case the send keeps going and its
// result still lands in the controller.
func (c *Controller) Submit(ctx context.Context, meta Meta) (Ack, error) {
	start := time.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Ack{}, ErrClosed
	}
	if c.status == Sending || c.status == Sent {
		c.mu.Unlock()
		c.report(OutcomeBusy, start)
		return Ack{}, ErrBusy
	}

	c.setStatus(Validating)
	c.submitErr = nil
	errs := c.state.ValidateAll()
	if errs.Any() {
		c.setStatus(Rejected)
		c.mu.Unlock()
		c.report(OutcomeRejected, start)
		return Ack{}, &ValidationErrors{Fields: errs}
	}

	c.setStatus(Sending)
	c.gen++
	gen := c.gen
	sub := Submission{
		FormID:      c.id,
		Data:        c.state.Values(),
		Meta:        meta,
		SubmittedAt: time.Now().UTC(),
	}
	sendCtx := c.ctx
	c.mu.Unlock()

	type result struct {
		ack Ack
		err error
	}
	done := make(chan result, 1)
	go func() {
		ack, err := c.sender.Send(sendCtx, sub)
		ack, err = c.finish(gen, ack, err)
		switch {
		case err == nil:
			c.report(OutcomeSent, start)
		case err != ErrClosed:
			c.report(OutcomeFailed, start)
		}
		done <- result{ack, err}
	}()

	select {
	case r := <-done:
		return r.ack, r.err
	case <-ctx.Done():
		return Ack{}, ctx.Err()
	}
}

// finish applies the send result unless the controller moved on.
func (c *Controller) finish(gen uint64, ack Ack, err error) (Ack, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen || c.status != Sending {
		return Ack{}, ErrClosed
	}

	if err != nil {
		c.submitErr = &SubmissionError{Message: MsgSubmitFailed, Err: err}
		c.setStatus(Rejected)
		c.log.Warnw("contact submission failed", "form", c.id, "err", err)
		return Ack{}, c.submitErr
	}

	c.state.Reset()
	c.lastAck = ack
	c.setStatus(Sent)
	c.panel.Show(c.dismissAfter)
	c.log.Infow("contact submission sent", "form", c.id, "reference", ack.Reference)
	return ack, nil
}

// Dismiss hides the success panel.  It reports whether the controller left
// the Sent state.
func (c *Controller) Dismiss() bool {
	c.mu.Lock()
	if c.closed || c.status != Sent {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()
	return c.panel.Hide()
}

// successHidden is the panel exit effect.
func (c *Controller) successHidden() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.status != Sent {
		return
	}
	c.setStatus(Idle)
}

// Close cancels any in-flight send, stops timers, and freezes the
// controller.  Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.panel.Stop()
}

/*──────────────────────────── read side ───────────────────────────────────*/

// Status returns the current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Values returns a copy of the current values.
func (c *Controller) Values() FormData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Values()
}

// View is a consistent snapshot for templates and JSON responses.
type View struct {
	FormID         string            `json:"form"`
	Status         Status            `json:"status"`
	Loading        bool              `json:"loading"`
	SubmitDisabled bool              `json:"submit_disabled"`
	Values         map[string]string `json:"values"`
	Errors         map[string]string `json:"errors"`
	Validity       map[string]string `json:"validity"`
	SuccessVisible bool              `json:"success_visible"`
	Reference      string            `json:"reference,omitempty"`
	Banner         string            `json:"banner,omitempty"`
}

// Snapshot returns the current View.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		FormID:         c.id,
		Status:         c.status,
		Loading:        c.status == Sending,
		SubmitDisabled: c.status == Sending || c.status == Sent,
		Values:         c.state.Values().Strings(),
		Errors:         make(map[string]string),
		Validity:       make(map[string]string),
		SuccessVisible: c.status == Sent,
	}
	for _, f := range c.state.Fields() {
		if msg, ok := c.state.Error(f); ok && msg != "" {
			v.Errors[f.String()] = msg
		}
		v.Validity[f.String()] = CheckValidity(f, c.state.Value(f)).String()
	}
	if c.status == Sent {
		v.Reference = c.lastAck.Reference
	}
	if c.submitErr != nil {
		v.Banner = c.submitErr.Message
	}
	return v
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func (c *Controller) setStatus(s Status) {
	if s == c.status {
		return
	}
	from := c.status
	c.status = s
	if c.onTransition != nil {
		c.onTransition(from, s)
	}
}

func (c *Controller) report(outcome string, start time.Time) {
	if c.observe != nil {
		c.observe(c.id, outcome, time.Since(start))
	}
}
