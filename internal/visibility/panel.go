// internal/visibility/panel.go
//
// Explicit UI-visibility state.
//
// Context
// -------
// Some page fragments appear for a while and then go away on their own,
// e.g. the “message sent” panel after a contact submission.  Instead of
// scattering timers through handlers, a Panel owns the visible flag, the
// optional auto-hide timer, and the enter/exit effects declared by its
// owner.
//
// Rules
// -----
//   • Enter runs exactly once per hidden → visible transition.
//   • Exit runs exactly once per visible → hidden transition, whether the
//     hide came from the timer or from an explicit Hide call.
//   • Effects run outside the panel lock, so they may call back into the
//     owner (which usually holds its own mutex).
//   • Stop cancels a pending timer without running Exit.  Owners call it on
//     teardown.
package visibility

import (
	"sync"
	"time"
)

// Effects are the side effects bound to a visibility transition.  Either
// may be nil.
type Effects struct {
	OnEnter func()
	OnExit  func()
}

// Panel is safe for concurrent use.  The zero value is a hidden panel with
// no effects.
type Panel struct {
	mu      sync.Mutex
	visible bool
	gen     uint64 // bumped on every transition; stale timers compare it
	timer   *time.Timer
	effects Effects
}

// New returns a hidden Panel bound to fx.
func New(fx Effects) *Panel {
	return &Panel{effects: fx}
}

// Show makes the panel visible.  When autoHide > 0 the panel hides itself
// after that delay unless something hides it first.  Showing an already
// visible panel restarts the timer but does not re-run OnEnter.
func (p *Panel) Show(autoHide time.Duration) {
	p.mu.Lock()
	entered := !p.visible
	p.visible = true
	p.gen++
	gen := p.gen
	p.stopTimerLocked()
	if autoHide > 0 {
		p.timer = time.AfterFunc(autoHide, func() { p.hideIf(gen) })
	}
	p.mu.Unlock()

	if entered && p.effects.OnEnter != nil {
		p.effects.OnEnter()
	}
}

// Hide makes the panel hidden.  It reports whether a transition happened.
func (p *Panel) Hide() bool {
	p.mu.Lock()
	if !p.visible {
		p.mu.Unlock()
		return false
	}
	p.visible = false
	p.gen++
	p.stopTimerLocked()
	p.mu.Unlock()

	if p.effects.OnExit != nil {
		p.effects.OnExit()
	}
	return true
}

// Visible reports the current state.
func (p *Panel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Stop cancels any pending auto-hide without running effects.  The panel
// keeps its current visibility.
func (p *Panel) Stop() {
	p.mu.Lock()
	p.gen++
	p.stopTimerLocked()
	p.mu.Unlock()
}

// hideIf is the timer callback.  A timer armed for an older generation is
// ignored; a newer Show or Hide already superseded it.
func (p *Panel) hideIf(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || !p.visible {
		p.mu.Unlock()
		return
	}
	p.visible = false
	p.gen++
	p.timer = nil
	p.mu.Unlock()

	if p.effects.OnExit != nil {
		p.effects.OnExit()
	}
}

func (p *Panel) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
