package form

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/agencysite/internal/contact"
	"github.com/yanizio/agencysite/internal/content"
	"github.com/yanizio/agencysite/internal/inquiry"
	"github.com/yanizio/agencysite/internal/message"
	"github.com/yanizio/agencysite/internal/widget"
)

func TestMain(m *testing.M) {
	if err := RegisterDefaults(content.Default()); err != nil {
		panic(err)
	}
	SetKey(strings.Repeat("k", 32), time.Hour)
	m.Run()
}

/*──── definitions ────*/

func TestRegisterDefaults(t *testing.T) {
	assert.Equal(t, []string{"contact", "inquiry"}, IDs())

	fd, ok := GetFormDef("contact")
	require.True(t, ok)
	dept, ok := fd.Lookup(contact.FieldService)
	require.True(t, ok, "department should map to service")
	assert.Equal(t, "department", dept.Name)
	assert.Contains(t, dept.Options, "Web Development")
	assert.True(t, dept.Required())

	inq, _ := GetFormDef("inquiry")
	budget, _ := inq.Lookup(contact.FieldBudget)
	assert.Equal(t, content.Default().Budgets(), budget.Options)
	assert.False(t, budget.Required())

	assert.NotNil(t, widget.Lookup("form/contact"))
	assert.NotNil(t, widget.Lookup("form/inquiry"))
}

func TestParseFormDef_Rejects(t *testing.T) {
	base := "id: x\nfields:\n" +
		"  - {name: name, label: N, type: text}\n" +
		"  - {name: email, label: E, type: email}\n" +
		"  - {name: message, label: M, type: textarea}\n" +
		"  - {name: service, label: S, type: select, options: [a]}\n"

	_, err := ParseFormDef([]byte(base), nil)
	require.NoError(t, err)

	tests := map[string]string{
		"unknown field": base + "  - {name: fax, label: F, type: text}\n",
		"duplicate":     base + "  - {name: department, label: D, type: select, options: [a]}\n",
		"bad type":      base + "  - {name: phone, label: P, type: range}\n",
		"no source":     base + "  - {name: budget, label: B, type: select, options_from: budgets}\n",
		"bad action":    base + "actions:\n  - type: pdf\n",
		"unknown key":   base + "colour: red\n",
		"missing req":   "id: x\nfields:\n  - {name: name, label: N, type: text}\n",
		"empty select":  strings.Replace(base, "options: [a]", "options: []", 1),
		"missing label": strings.Replace(base, "label: N, ", "", 1),
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFormDef([]byte(doc), nil)
			assert.Error(t, err)
		})
	}
}

/*──── csrf + guard ────*/

func TestTokens(t *testing.T) {
	tk := NewTokens([]byte(strings.Repeat("a", 32)), time.Hour)
	tok, err := tk.Generate()
	require.NoError(t, err)
	require.NoError(t, tk.Verify(tok))

	other := NewTokens([]byte(strings.Repeat("b", 32)), time.Hour)
	assert.ErrorIs(t, other.Verify(tok), ErrTokenForged)

	// flip one character in the signature
	b := []byte(tok)
	if b[len(b)-1] == 'A' {
		b[len(b)-1] = 'B'
	} else {
		b[len(b)-1] = 'A'
	}
	assert.Error(t, tk.Verify(string(b)))

	assert.ErrorIs(t, tk.Verify("not-a-token"), ErrTokenMalformed)
	assert.ErrorIs(t, tk.Verify(""), ErrTokenMalformed)

	tk.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, tk.Verify(tok), ErrTokenExpired)
}

func posted(t *testing.T, age time.Duration) url.Values {
	t.Helper()
	tok, err := GenerateToken()
	require.NoError(t, err)
	return url.Values{
		FieldCSRF:     {tok},
		FieldRenderTS: {strconv.FormatInt(time.Now().Add(-age).UnixMicro(), 10)},
	}
}

func TestGuard(t *testing.T) {
	g := Guard{MinFill: 2 * time.Second, MaxAge: 30 * time.Minute}

	require.NoError(t, g.Check(posted(t, 5*time.Second)))

	tests := map[string]struct {
		v      url.Values
		reason string
	}{
		"too fast": {posted(t, 0), "timing"},
		"expired":  {posted(t, time.Hour), "timing"},
		"no token": {url.Values{FieldRenderTS: {"1"}}, "token"},
	}
	hp := posted(t, 5*time.Second)
	hp.Set(FieldHoneypot, "http://spam.example")
	tests["honeypot"] = struct {
		v      url.Values
		reason string
	}{hp, "honeypot"}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := g.Check(tc.v)
			var ge *GuardError
			require.True(t, errors.As(err, &ge), "err = %v", err)
			assert.Equal(t, tc.reason, ge.Reason)
			assert.NotEmpty(t, ge.Message)
		})
	}
}

func TestGuard_TokenSource(t *testing.T) {
	g := Guard{Tokens: NewTokens([]byte(strings.Repeat("k", 32)), time.Hour)}
	require.Same(t, g.Tokens, g.TokenSource())
	require.Same(t, defaults(), Guard{}.TokenSource())

	// Issued and checked under the guard's own key.
	tok, err := g.TokenSource().Generate()
	require.NoError(t, err)
	v := posted(t, time.Minute)
	v.Set(FieldCSRF, tok)
	require.NoError(t, g.Check(v))

	// A process-wide token does not pass a guard with its own key.
	err = g.Check(posted(t, time.Minute))
	var ge *GuardError
	require.True(t, errors.As(err, &ge), "err = %v", err)
	assert.Equal(t, "token", ge.Reason)

	// Rendered forms carry a token the same guard accepts.
	html, err := RenderForm("contact", RenderOptions{Tokens: g.TokenSource()})
	require.NoError(t, err)
	m := regexp.MustCompile(`name="csrf_token" value="([^"]+)"`).FindStringSubmatch(string(html))
	require.Len(t, m, 2)
	v.Set(FieldCSRF, m[1])
	assert.NoError(t, g.Check(v))
}

/*──── decode ────*/

func TestDecode(t *testing.T) {
	data, err := Decode("contact", url.Values{
		"name":       {"Jo"},
		"department": {"Web Development"},
		"message":    {"line one\r\nline two"},
		"fax":        {"ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Jo", data[contact.FieldName])
	assert.Equal(t, "Web Development", data[contact.FieldService])
	assert.Equal(t, "line one\nline two", data[contact.FieldMessage])
	assert.Equal(t, "", data[contact.FieldEmail], "absent fields decode blank")
	_, hasBudget := data[contact.FieldBudget]
	assert.False(t, hasBudget, "contact form has no budget field")

	data, _ = Decode("contact", url.Values{
		"service": {"Time Travel"},
		"name":    {strings.Repeat("x", 500)},
	})
	assert.Equal(t, "", data[contact.FieldService], "unknown option dropped")
	assert.Len(t, data[contact.FieldName], 120)

	_, err = Decode("nope", nil)
	assert.Error(t, err)
}

/*──── render ────*/

func TestRenderForm(t *testing.T) {
	html, err := RenderForm("contact", RenderOptions{
		Action: "/contact",
		State: contact.View{
			Status:   contact.Rejected,
			Values:   map[string]string{"name": `<b>Jo</b>`, "service": "Mobile Apps"},
			Errors:   map[string]string{"email": contact.MsgEmailRequired},
			Validity: map[string]string{"name": "valid", "email": "unknown"},
			Banner:   contact.MsgSubmitFailed,
		},
	})
	require.NoError(t, err)
	s := string(html)

	assert.Contains(t, s, `action="/contact"`)
	assert.Contains(t, s, `value="&lt;b&gt;Jo&lt;/b&gt;"`)
	assert.NotContains(t, s, "<b>Jo")
	assert.Contains(t, s, `<option value="Mobile Apps" selected>`)
	assert.Contains(t, s, `aria-invalid="true"`)
	assert.Contains(t, s, `role="alert"`)
	assert.Contains(t, s, `name="csrf_token"`)
	assert.Contains(t, s, `name="department"`)
	assert.NotContains(t, s, " disabled")
}

func TestRenderForm_SendingAndSent(t *testing.T) {
	html, err := RenderForm("inquiry", RenderOptions{State: contact.View{Status: contact.Sending, Loading: true, SubmitDisabled: true}})
	require.NoError(t, err)
	assert.Contains(t, string(html), `disabled aria-disabled="true"`)
	assert.Contains(t, string(html), "Sending…")

	html, err = RenderForm("inquiry", RenderOptions{State: contact.View{
		Status: contact.Sent, SubmitDisabled: true, SuccessVisible: true, Reference: "ref-42",
	}})
	require.NoError(t, err)
	assert.Contains(t, string(html), `class="form-success"`)
	assert.Contains(t, string(html), "ref-42")
	assert.Contains(t, string(html), `formaction="/inquiry/dismiss"`)
}

func TestWidget(t *testing.T) {
	w := widget.Lookup("form/contact")
	require.NotNil(t, w)
	out, policy, err := w.Render(nil, map[string]any{"action": "/contact"})
	require.NoError(t, err)
	assert.Equal(t, widget.CacheSkip, policy)
	assert.Contains(t, out, `id="form-contact"`)
}

/*──── actions ────*/

type fakeStore struct {
	err  error
	recs []inquiry.Record
}

func (f *fakeStore) Insert(_ context.Context, rec inquiry.Record) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.recs = append(f.recs, rec)
	return int64(len(f.recs)), nil
}

type fakePoster struct {
	url     string
	headers map[string]string
	payload any
	err     error
}

func (f *fakePoster) Post(_ context.Context, url string, h map[string]string, p any) error {
	f.url, f.headers, f.payload = url, h, p
	return f.err
}

type fakeMailer struct {
	mu   sync.Mutex
	msgs []message.Email
	err  error
}

func (f *fakeMailer) Enqueue(_ context.Context, m message.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func submission() contact.Submission {
	return contact.Submission{
		FormID: "contact",
		Data: contact.FormData{
			contact.FieldName:    "Jo <script>alert(1)</script>",
			contact.FieldEmail:   "jo@x.com",
			contact.FieldMessage: "Need a new website built",
			contact.FieldService: "Web Development",
		},
		Meta:        contact.Meta{Country: "NZ", UTMSource: "ads"},
		SubmittedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestActionSender_RunsActions(t *testing.T) {
	store, poster, mail := &fakeStore{}, &fakePoster{}, &fakeMailer{}
	s := &ActionSender{
		Store: store, Webhook: poster, Mail: mail,
		WebhookURL: "https://hooks.example/intake",
		MailTo:     []string{"hello@northlight.example"},
	}

	ack, err := s.Send(context.Background(), submission())
	require.NoError(t, err)
	require.NotEmpty(t, ack.Reference)

	require.Len(t, store.recs, 1)
	assert.Equal(t, ack.Reference, store.recs[0].Reference)

	assert.Equal(t, "https://hooks.example/intake", poster.url)
	assert.Equal(t, "contact", poster.headers["X-Form-ID"])
	p := poster.payload.(WebhookPayload)
	assert.Equal(t, "Jo", p.Fields["name"], "markup stripped")
	assert.Equal(t, "ads", p.Source["utm_source"])

	require.Len(t, mail.msgs, 1)
	assert.Equal(t, "jo@x.com", mail.msgs[0].ReplyTo)
	assert.Contains(t, mail.msgs[0].Subject, "from Jo")
	assert.Contains(t, mail.msgs[0].Text, ack.Reference)
}

func TestActionSender_Failures(t *testing.T) {
	s := &ActionSender{Store: &fakeStore{err: errors.New("db down")}}
	_, err := s.Send(context.Background(), submission())
	assert.ErrorContains(t, err, "store action")

	s = &ActionSender{Webhook: &fakePoster{err: errors.New("503")}, WebhookURL: "https://hooks.example"}
	_, err = s.Send(context.Background(), submission())
	assert.ErrorContains(t, err, "webhook action")

	// A full mail queue is not fatal.
	s = &ActionSender{Mail: &fakeMailer{err: message.ErrQueueFull}, MailTo: []string{"a@b.co"}}
	_, err = s.Send(context.Background(), submission())
	assert.NoError(t, err)
}

/*──── POST helper ────*/

func TestParsePost(t *testing.T) {
	v := posted(t, 5*time.Second)
	v.Set("name", "Jo")
	v.Set("email", "jo@x.com")
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	data, err := ParsePost("contact", req, Guard{MinFill: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "jo@x.com", data[contact.FieldEmail])

	req = httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader("name=Jo"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = ParsePost("contact", req, Guard{})
	assert.True(t, IsGuardError(err))
}

func TestControllerFactory(t *testing.T) {
	var got []string
	factory := NewControllerFactory(FactoryOptions{
		Sender: func(fd *FormDef) contact.Sender {
			got = append(got, fd.ID)
			return contact.Simulated{}
		},
		DismissAfter: time.Minute,
	})

	ctl, err := factory("inquiry")
	require.NoError(t, err)
	t.Cleanup(ctl.Close)
	assert.Equal(t, "inquiry", ctl.ID())
	assert.Equal(t, contact.Idle, ctl.Status())
	assert.Equal(t, []string{"inquiry"}, got)

	// Budget belongs to the inquiry form, not to contact.
	assert.NoError(t, ctl.Change(contact.FieldBudget, "$10k–$25k"))

	contactCtl, err := factory("contact")
	require.NoError(t, err)
	t.Cleanup(contactCtl.Close)
	assert.Error(t, contactCtl.Change(contact.FieldBudget, "x"))

	_, err = factory("nope")
	assert.Error(t, err)
}
