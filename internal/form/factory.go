// internal/form/factory.go
//
// Forms subsystem: controller factory.
//
// Context
//   Each visitor owns one contact.Controller per form.  The visitor store
//   creates them lazily through a factory; this file builds that factory
//   from the registered definitions so every controller validates exactly
//   the fields its FormDef lists and reports to Prometheus.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/agencysite/internal/contact"
	"github.com/yanizio/agencysite/internal/metrics"
)

// FactoryOptions configure NewControllerFactory.
type FactoryOptions struct {
	// Sender returns the delivery strategy for a form.  Nil means
	// contact.Simulated with the default delay.
	Sender       func(fd *FormDef) contact.Sender
	DismissAfter time.Duration
	Log          *zap.SugaredLogger
}

// NewControllerFactory returns a function that builds an Idle controller
// for a registered form ID.
func NewControllerFactory(opts FactoryOptions) func(formID string) (*contact.Controller, error) {
	return func(formID string) (*contact.Controller, error) {
		fd, ok := GetFormDef(formID)
		if !ok {
			return nil, fmt.Errorf("form: unknown form %q", formID)
		}
		var sender contact.Sender
		if opts.Sender != nil {
			sender = opts.Sender(fd)
		}
		return contact.New(contact.Options{
			FormID:       fd.ID,
			Fields:       fd.ContactFields(),
			Sender:       sender,
			DismissAfter: opts.DismissAfter,
			Logger:       opts.Log,
			Observe:      metrics.ObserveSubmission,
		}), nil
	}
}
