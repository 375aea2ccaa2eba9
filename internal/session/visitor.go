// internal/session/visitor.go
//
// Visitor aggregate.
//
// Context
// -------
// A Visitor groups the per-browser UI state the site keeps between
// requests: one contact.Controller per form (created on first use) and the
// services-page Selector.  The store keeps a pointer to Visitor inside
// `entry`, along with a `lastSeen` UnixNano timestamp used by the evictor
// for idle and LRU eviction.
//
// Notes
// -----
//   - `Close` is invoked only by the store evictor and Store.Close; it
//     freezes every controller so a late send never mutates evicted state.
package session

import (
	"sync"

	"github.com/yanizio/agencysite/internal/contact"
)

// FormFactory builds the controller for formID.  It returns an error for
// unknown forms.
type FormFactory func(formID string) (*contact.Controller, error)

//
// Cache entry
//

type entry struct {
	visitor  *Visitor
	lastSeen int64 // UnixNano
}

//
// Visitor aggregate
//

// Visitor is safe for concurrent use.
type Visitor struct {
	ID       string
	Selector *contact.Selector

	mu      sync.Mutex
	closed  bool
	forms   map[string]*contact.Controller
	factory FormFactory
}

func newVisitor(id string, sel *contact.Selector, f FormFactory) *Visitor {
	return &Visitor{
		ID:       id,
		Selector: sel,
		forms:    make(map[string]*contact.Controller),
		factory:  f,
	}
}

// Form returns the visitor's controller for formID, creating it on first
// use.
func (v *Visitor) Form(formID string) (*contact.Controller, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, contact.ErrClosed
	}
	if c, ok := v.forms[formID]; ok {
		return c, nil
	}
	c, err := v.factory(formID)
	if err != nil {
		return nil, err
	}
	v.forms[formID] = c
	return c, nil
}

// Forms returns the IDs of forms already in use.
func (v *Visitor) Forms() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, 0, len(v.forms))
	for id := range v.forms {
		out = append(out, id)
	}
	return out
}

// Close freezes every controller.  Safe to call more than once.
func (v *Visitor) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for _, c := range v.forms {
		c.Close()
	}
}
