package contact

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBusy is returned when input or a submit arrives while a submission is
// in flight or the success panel is still showing.
var ErrBusy = errors.New("contact: submission not accepted in current state")

// ErrClosed is returned by operations on a controller after Close.
var ErrClosed = errors.New("contact: form closed")

// ErrUnknownService is returned when a selector is asked to pick a service
// that is not in the catalogue.
var ErrUnknownService = errors.New("contact: unknown service")

// ValidationErrors carries the per-field messages that blocked a submission.
// It is a user error, never a system failure.
type ValidationErrors struct {
	Fields FieldErrors
}

func (e *ValidationErrors) Error() string {
	failed := e.Fields.Failed()
	names := make([]string, len(failed))
	for i, f := range failed {
		names[i] = f.String()
	}
	return "contact: invalid fields: " + strings.Join(names, ", ")
}

// SubmissionError wraps a Sender failure.  The form keeps its values and the
// submit control is re-enabled; the page shows Message as a banner.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("contact: submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// UnknownFieldError reports a submission key outside the Field set.
type UnknownFieldError struct{ Name string }

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("contact: unknown field %q", e.Name)
}

// IsValidationError reports whether err (or anything it wraps) is a
// *ValidationErrors.
func IsValidationError(err error) bool {
	var ve *ValidationErrors
	return errors.As(err, &ve)
}
