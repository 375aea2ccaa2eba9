package contact

// State holds the values, errors, and touched flags of one form instance.
// It is not synchronised; Controller wraps it with a mutex.
type State struct {
	fields  []Field
	values  FormData
	errors  FieldErrors
	touched map[Field]bool
}

// NewState returns a blank State for the given field set.
func NewState(fields []Field) *State {
	fs := append([]Field(nil), fields...)
	return &State{
		fields:  fs,
		values:  Blank(fs),
		errors:  make(FieldErrors, len(fs)),
		touched: make(map[Field]bool, len(fs)),
	}
}

// Has reports whether f belongs to this form.
func (s *State) Has(f Field) bool {
	for _, x := range s.fields {
		if x == f {
			return true
		}
	}
	return false
}

// Change stores a new value.  Once the field has been touched its error is
// recomputed immediately; before that the error stays unset.
func (s *State) Change(f Field, value string) {
	s.values[f] = value
	if s.touched[f] {
		s.errors[f] = Validate(f, value)
	}
}

// Blur marks f touched and validates its current value.
func (s *State) Blur(f Field) string {
	s.touched[f] = true
	msg := Validate(f, s.values[f])
	s.errors[f] = msg
	return msg
}

// ValidateAll validates every field, marks them all touched, and returns a
// copy of the resulting errors.
func (s *State) ValidateAll() FieldErrors {
	s.errors = ValidateAll(s.values, s.fields)
	for _, f := range s.fields {
		s.touched[f] = true
	}
	return s.errors.Clone()
}

// Reset clears values back to empty strings and forgets errors and touch
// state.
func (s *State) Reset() {
	s.values = Blank(s.fields)
	s.errors = make(FieldErrors, len(s.fields))
	s.touched = make(map[Field]bool, len(s.fields))
}

// Value returns the current value of f.
func (s *State) Value(f Field) string { return s.values[f] }

// Error returns the current message for f and whether f has been validated.
func (s *State) Error(f Field) (string, bool) {
	msg, ok := s.errors[f]
	return msg, ok
}

// Touched reports whether f has been blurred or validated at submit.
func (s *State) Touched(f Field) bool { return s.touched[f] }

// Values returns a copy of the current values.
func (s *State) Values() FormData { return s.values.Clone() }

// Errors returns a copy of the current errors.
func (s *State) Errors() FieldErrors { return s.errors.Clone() }

// Fields returns the form's field set in display order.
func (s *State) Fields() []Field { return append([]Field(nil), s.fields...) }
