package contact

import (
	"fmt"
	"sync"

	"github.com/yanizio/agencysite/internal/content"
)

// Selector is the services-page tab state: which category is active, which
// service cards are expanded, and which service the visitor picked.
//
// Switching category always collapses every card, so no detail panel from a
// previous tab stays open.
type Selector struct {
	mu         sync.Mutex
	categories []content.Category
	active     int
	expanded   map[int]bool
	selected   string
}

// NewSelector starts on the first category with nothing expanded.
func NewSelector(categories []content.Category) *Selector {
	return &Selector{
		categories: categories,
		expanded:   make(map[int]bool),
	}
}

// SelectCategory activates category i and collapses all cards.  Selecting
// the already active category still collapses.
func (s *Selector) SelectCategory(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.categories) {
		return fmt.Errorf("contact: category index %d out of range [0,%d)", i, len(s.categories))
	}
	s.active = i
	s.expanded = make(map[int]bool)
	return nil
}

// ToggleExpanded flips the detail flag of item in the active category and
// returns the new value.
func (s *Selector) ToggleExpanded(item int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.categories) == 0 {
		return false, fmt.Errorf("contact: no categories")
	}
	n := len(s.categories[s.active].Services)
	if item < 0 || item >= n {
		return false, fmt.Errorf("contact: service index %d out of range [0,%d)", item, n)
	}
	s.expanded[item] = !s.expanded[item]
	return s.expanded[item], nil
}

// Expanded reports whether item in the active category is open.
func (s *Selector) Expanded(item int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[item]
}

// ActiveIndex returns the active category index.
func (s *Selector) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Active returns the active category.  The zero Category is returned when
// the catalogue is empty.
func (s *Selector) Active() content.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.categories) == 0 {
		return content.Category{}
	}
	return s.categories[s.active]
}

// Selected returns the last picked service name, or "".
func (s *Selector) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SelectService records name and writes it verbatim into form's service
// field.  The name must exist in some category.  Nothing is recorded when
// the form refuses input (ErrBusy).
func (s *Selector) SelectService(name string, form *Controller) error {
	s.mu.Lock()
	known := false
	for _, c := range s.categories {
		for _, svc := range c.Services {
			if svc.Name == name {
				known = true
				break
			}
		}
	}
	if !known {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownService, name)
	}
	s.mu.Unlock()

	if err := form.Change(FieldService, name); err != nil {
		return err
	}
	s.mu.Lock()
	s.selected = name
	s.mu.Unlock()
	return nil
}

// Card is one rendered service in the active category.
type Card struct {
	Index    int
	Service  content.Service
	Expanded bool
}

// Cards returns the active category's services with their expanded flags.
func (s *Selector) Cards() []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.categories) == 0 {
		return nil
	}
	svcs := s.categories[s.active].Services
	out := make([]Card, len(svcs))
	for i, svc := range svcs {
		out[i] = Card{Index: i, Service: svc, Expanded: s.expanded[i]}
	}
	return out
}
