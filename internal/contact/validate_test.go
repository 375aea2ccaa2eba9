package contact

import "testing"

func TestValidate_EmptyInput(t *testing.T) {
	want := map[Field]string{
		FieldName:     MsgNameRequired,
		FieldEmail:    MsgEmailRequired,
		FieldMessage:  MsgMessageRequired,
		FieldService:  MsgServiceRequired,
		FieldPhone:    "",
		FieldCompany:  "",
		FieldBudget:   "",
		FieldTimeline: "",
	}
	for _, f := range Fields {
		if got := Validate(f, ""); got != want[f] {
			t.Errorf("Validate(%s, \"\") = %q, want %q", f, got, want[f])
		}
		if got := Validate(f, "   "); got != want[f] {
			t.Errorf("Validate(%s, blank) = %q, want %q", f, got, want[f])
		}
		if Required(f) != (want[f] != "") {
			t.Errorf("Required(%s) disagrees with empty-value rule", f)
		}
	}
}

func TestValidate_Rules(t *testing.T) {
	cases := []struct {
		f     Field
		value string
		ok    bool
	}{
		{FieldEmail, "not-an-email", false},
		{FieldEmail, "a@b.co", true},
		{FieldEmail, "a b@c.de", false},
		{FieldEmail, "jo@x", false},
		{FieldMessage, "short", false},
		{FieldMessage, "this is long enough", true},
		{FieldMessage, "  123456789  ", false},
		{FieldName, "J", false},
		{FieldName, "Jo", true},
		{FieldName, "Zoë", true},
		{FieldPhone, "+1 (555) 010-4400", true},
		{FieldPhone, "555-0100", true},
		{FieldPhone, "(((---)))", false},
		{FieldPhone, "call me", false},
		{FieldService, "Web Development", true},
		{FieldCompany, "x", true},
	}
	for _, c := range cases {
		msg := Validate(c.f, c.value)
		if (msg == "") != c.ok {
			t.Errorf("Validate(%s, %q) = %q, want ok=%v", c.f, c.value, msg, c.ok)
		}
	}
}

func TestCheckValidity(t *testing.T) {
	if v := CheckValidity(FieldEmail, ""); v != Unknown {
		t.Fatalf("empty email = %s, want unknown", v)
	}
	if v := CheckValidity(FieldEmail, "nope"); v != Invalid {
		t.Fatalf("bad email = %s, want invalid", v)
	}
	if v := CheckValidity(FieldEmail, "jo@x.com"); v != Valid {
		t.Fatalf("good email = %s, want valid", v)
	}
}

func TestParseField(t *testing.T) {
	cases := map[string]Field{
		"name":       FieldName,
		" Email ":    FieldEmail,
		"department": FieldService,
		"SERVICE":    FieldService,
	}
	for in, want := range cases {
		got, ok := ParseField(in)
		if !ok || got != want {
			t.Errorf("ParseField(%q) = %s, %v", in, got, ok)
		}
	}
	if _, ok := ParseField("password"); ok {
		t.Fatal("unknown field accepted")
	}

	var f Field
	if err := f.UnmarshalText([]byte("nope")); err == nil {
		t.Fatal("UnmarshalText accepted unknown field")
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidateAll(FormData{FieldName: "Jo"}, []Field{FieldName, FieldEmail, FieldMessage})
	err := &ValidationErrors{Fields: errs}
	if got, want := err.Error(), "contact: invalid fields: email, message"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !IsValidationError(err) {
		t.Fatal("IsValidationError = false")
	}
}
