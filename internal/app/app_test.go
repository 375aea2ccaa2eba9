package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/yanizio/agencysite/internal/config"
	"github.com/yanizio/agencysite/internal/form"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testYAML = `
site_name: Test Agency
debug: false
contact:
  mode: simulated
  send_delay: 1ms
  dismiss_after: 1h
session:
  secret: test-session-secret-test-session-secret
  evict_interval: 1h
security:
  csrf_key: test-csrf-key-test-csrf-key-test-csrf-key
  min_fill_time: 1ms
routes:
  aliases:
    /work: /portfolio
`

// newSite assembles the site from a temp root and closes it on cleanup.
func newSite(t *testing.T) *App {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "site.yaml"), []byte(testYAML), 0o644))

	cfg, err := config.LoadFrom(context.Background(), root, nil)
	require.NoError(t, err)

	a, err := New(context.Background(), cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

// browser replays cookies between requests the way a real client would.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies []*http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		b.cookies = set
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, vals url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postJSON(path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(b.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	return b.do(req)
}

// guarded returns the hidden inputs a rendered form would carry.
func guarded(t *testing.T, vals url.Values) url.Values {
	t.Helper()
	tok, err := form.GenerateToken()
	require.NoError(t, err)
	vals.Set(form.FieldCSRF, tok)
	vals.Set(form.FieldRenderTS, strconv.FormatInt(time.Now().Add(-time.Minute).UnixMicro(), 10))
	return vals
}

func TestPages(t *testing.T) {
	a := newSite(t)
	b := &browser{t: t, h: a.Handler}

	for _, p := range []string{"/", "/about", "/services", "/portfolio", "/contact"} {
		rec := b.get(p)
		assert.Equal(t, http.StatusOK, rec.Code, p)
		assert.Contains(t, rec.Body.String(), "Test Agency", p)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"), p)
	}

	rec := b.get("/no-such-page")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = b.get("/work")
	assert.Equal(t, http.StatusOK, rec.Code, "alias should serve the portfolio")
}

func TestPortfolio_Project(t *testing.T) {
	a := newSite(t)
	b := &browser{t: t, h: a.Handler}

	rec := b.get("/portfolio/harbour-freight-portal")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Harbour Freight Portal")

	rec = b.get("/portfolio/Harbour-Freight-Portal")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/portfolio/harbour-freight-portal", rec.Header().Get("Location"))

	rec = b.get("/portfolio/no-such-project")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = b.get("/portfolio?category=web")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Greenleaf Grocer")
}

func TestContact_HTMLPostRedirectGet(t *testing.T) {
	a := newSite(t)
	b := &browser{t: t, h: a.Handler}

	rec := b.get("/contact")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, b.cookies, "visitor cookie issued")
	assert.Contains(t, rec.Body.String(), `id="form-contact"`)

	// Empty post: redirected back, errors rendered from the session.
	rec = b.postForm("/contact", guarded(t, url.Values{}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/contact#form-contact", rec.Header().Get("Location"))

	rec = b.get("/contact")
	assert.Contains(t, rec.Body.String(), "Name is required")
	assert.Contains(t, rec.Body.String(), "Email is required")

	// Missing token: guard rejects with a notice.
	rec = b.postForm("/contact", url.Values{"name": {"Jane"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/contact?notice=token#form-contact", rec.Header().Get("Location"))

	// Valid post.
	rec = b.postForm("/contact", guarded(t, url.Values{
		"name":       {"Jane Doe"},
		"email":      {"jane@example.com"},
		"department": {"Web Development"},
		"message":    {"We need a new marketing site."},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = b.get("/contact")
	assert.Contains(t, rec.Body.String(), "form-success")
	assert.Contains(t, rec.Body.String(), "Reference:")

	// A second post while the panel is up changes nothing.
	rec = b.postForm("/contact", guarded(t, url.Values{
		"name":    {"Stale Post"},
		"email":   {"stale@example.com"},
		"message": {"Sent while the success panel was up."},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/contact#form-contact", rec.Header().Get("Location"))

	// Dismiss without the rendered token is refused.
	rec = b.postForm("/contact/dismiss", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/contact?notice=token#form-contact", rec.Header().Get("Location"))
	rec = b.get("/contact")
	assert.Contains(t, rec.Body.String(), "form-success")

	// Dismiss returns to the blank form.
	rec = b.postForm("/contact/dismiss", guarded(t, url.Values{}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = b.get("/contact")
	body := rec.Body.String()
	assert.NotContains(t, body, "form-success")
	assert.NotContains(t, body, "Jane Doe")
	assert.NotContains(t, body, "Stale Post")
}

func TestContact_Fragment(t *testing.T) {
	a := newSite(t)
	b := &browser{t: t, h: a.Handler}

	rec := b.get("/contact?fragment=form")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="form-contact"`)
	assert.NotContains(t, rec.Body.String(), "<html")
}

func TestContact_UnknownForm(t *testing.T) {
	a := newSite(t)
	b := &browser{t: t, h: a.Handler}

	rec := b.postForm("/forms/nope", guarded(t, url.Values{}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_StateFieldSubmit(t *testing.T) {
	a := newSite(t)
	b := &browser{t: t, h: a.Handler}

	rec := b.get("/api/forms/contact")
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		State map[string]any `json:"state"`
		Token string         `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.NotEmpty(t, state.Token)
	assert.Equal(t, "idle", state.State["status"])

	// Writes without the header are refused.
	rec = b.postJSON("/api/forms/contact/submit", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Blur on an invalid email reports the message.
	rec = b.postJSON("/api/forms/contact/fields/email", state.Token, map[string]string{"value": "nope", "event": "blur"})
	require.Equal(t, http.StatusOK, rec.Code)
	var field struct {
		Message  string `json:"message"`
		Validity string `json:"validity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &field))
	assert.Equal(t, "Please enter a valid email address", field.Message)
	assert.Equal(t, "invalid", field.Validity)

	rec = b.postJSON("/api/forms/contact/fields/budget", state.Token, map[string]string{"value": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code, "budget is not on the contact form")

	// Submit with errors.
	rec = b.postJSON("/api/forms/contact/submit", state.Token, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var failed struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.Contains(t, failed.Fields, "name")
	assert.Contains(t, failed.Fields, "message")

	// Submit with values.
	rec = b.postJSON("/api/forms/contact/submit", state.Token, map[string]any{"values": map[string]string{
		"name":    "Jane Doe",
		"email":   "jane@example.com",
		"service": "Web Development",
		"message": "We need a new marketing site.",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ok struct {
		Ack struct {
			Reference string `json:"reference"`
		} `json:"ack"`
		State map[string]any `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.NotEmpty(t, ok.Ack.Reference)
	assert.Equal(t, "sent", ok.State["status"])

	// A second submit while the success panel is up is busy, and so is
	// typing into a field.
	rec = b.postJSON("/api/forms/contact/submit", state.Token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = b.postJSON("/api/forms/contact/fields/name", state.Token, map[string]string{"value": "Stale"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = b.postJSON("/api/forms/contact/dismiss", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "dismiss needs the header too")

	rec = b.postJSON("/api/forms/contact/dismiss", state.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"dismissed":true`)
	assert.NotContains(t, rec.Body.String(), "Stale")
}

func TestServices_SelectAndFilter(t *testing.T) {
	a := newSite(t)
	b := &browser{t: t, h: a.Handler}

	rec := b.postForm("/services/select", url.Values{"service": {"Web Development"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/services#inquiry", rec.Header().Get("Location"))

	rec = b.get("/services")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Web Development" selected`)

	rec = b.postForm("/services/select", url.Values{"service": {"Time Travel"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = b.postForm("/services/view", url.Values{"category": {"1"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/services#services", rec.Header().Get("Location"))

	rec = b.get("/services")
	assert.Contains(t, rec.Body.String(), `name="category" value="1" class="active"`)

	// A query string does not change the selector.
	rec = b.get("/services?category=0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="category" value="1" class="active"`)
}

func TestOperationalEndpoints(t *testing.T) {
	a := newSite(t)
	b := &browser{t: t, h: a.Handler}

	rec := b.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "health checks never create visitors")
	assert.Equal(t, 0, a.Env.Visitors.Len())

	rec = b.get("/debug/request")
	assert.Equal(t, http.StatusNotFound, rec.Code, "debug is off")

	rec = b.get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = b.get("/themes/default/assets/css/site.css")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMigrate_RequiresDatabase(t *testing.T) {
	_, err := Migrate(context.Background(), &config.Config{})
	assert.Error(t, err)
}
