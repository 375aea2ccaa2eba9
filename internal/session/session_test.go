package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yanizio/agencysite/internal/contact"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(t *testing.T, max int) *Store {
	t.Helper()
	s := NewStore(Options{
		IdleTTL:       time.Minute,
		MaxEntries:    max,
		EvictInterval: time.Hour,
		Forms: func(id string) (*contact.Controller, error) {
			return contact.New(contact.Options{FormID: id, Sender: contact.Simulated{}}), nil
		},
	})
	t.Cleanup(s.Close)
	return s
}

func TestStore_GetCreatesOnce(t *testing.T) {
	s := newTestStore(t, 0)

	a, err := s.Get("v1")
	require.NoError(t, err)
	b, err := s.Get("v1")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, s.Len())
	assert.NotNil(t, a.Selector)

	f1, err := a.Form("contact")
	require.NoError(t, err)
	f2, err := a.Form("contact")
	require.NoError(t, err)
	assert.Same(t, f1, f2)
	assert.Equal(t, []string{"contact"}, a.Forms())
}

func TestStore_IdleEviction(t *testing.T) {
	s := newTestStore(t, 0)
	v, _ := s.Get("old")
	c, _ := v.Form("contact")

	s.evict(time.Now().Add(2 * time.Minute))

	_, ok := s.Peek("old")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
	assert.ErrorIs(t, c.Change(contact.FieldName, "x"), contact.ErrClosed)
	_, err := v.Form("contact")
	assert.ErrorIs(t, err, contact.ErrClosed)
}

func TestStore_LRUEviction(t *testing.T) {
	s := newTestStore(t, 2)
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Get(id)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	_, _ = s.Get("a") // refresh a; b is now oldest

	s.evict(time.Now())

	assert.Equal(t, 2, s.Len())
	_, ok := s.Peek("b")
	assert.False(t, ok)
	_, ok = s.Peek("a")
	assert.True(t, ok)
}

func TestStore_ClosedRejects(t *testing.T) {
	s := NewStore(Options{EvictInterval: time.Hour})
	_, _ = s.Get("x")
	s.Close()
	s.Close()
	_, err := s.Get("y")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.Equal(t, 0, s.Len())
}

func TestCookie_SignVerify(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	id := "6f1c2c1e-4b7a-4d3e-9d59-1b8c0b0f5a11"

	got, ok := verifyCookie(key, signCookie(key, id))
	assert.True(t, ok)
	assert.Equal(t, id, got)

	for _, bad := range []string{
		"",
		id,
		id + ".AAAA",
		"not-a-uuid." + mac(key, "not-a-uuid"),
		signCookie([]byte("other-key-other-key-other-key-xx"), id),
	} {
		_, ok := verifyCookie(key, bad)
		assert.False(t, ok, bad)
	}
}

func TestMiddleware_IssuesAndReusesCookie(t *testing.T) {
	s := newTestStore(t, 0)
	opts := CookieOptions{Name: "sv", Secret: "0123456789abcdef0123456789abcdef"}

	var seen []*Visitor
	h := Middleware(s, opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, FromContext(r.Context()))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sv", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies())

	require.Len(t, seen, 2)
	require.NotNil(t, seen[0])
	assert.Same(t, seen[0], seen[1])
}

func TestMiddleware_ForgedCookieReplaced(t *testing.T) {
	s := newTestStore(t, 0)
	h := Middleware(s, CookieOptions{Name: "sv", Secret: "k"})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sv", Value: "6f1c2c1e-4b7a-4d3e-9d59-1b8c0b0f5a11.forged"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Len(t, rec.Result().Cookies(), 1)
	_, ok := s.Peek("6f1c2c1e-4b7a-4d3e-9d59-1b8c0b0f5a11")
	assert.False(t, ok)
}

func TestMiddleware_PeekNeverCreates(t *testing.T) {
	s := newTestStore(t, 0)
	opts := CookieOptions{Name: "sv", Secret: "0123456789abcdef0123456789abcdef"}

	var got *Visitor
	peek := Middleware(s, CookieOptions{Name: opts.Name, Secret: opts.Secret, Peek: true})(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) { got = FromContext(r.Context()) }))

	rec := httptest.NewRecorder()
	peek.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Nil(t, got)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 0, s.Len())

	v, err := s.Get("6f1c2c1e-4b7a-4d3e-9d59-1b8c0b0f5a11")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.AddCookie(&http.Cookie{Name: "sv", Value: signCookie([]byte(opts.Secret), v.ID)})
	peek.ServeHTTP(httptest.NewRecorder(), req)
	assert.Same(t, v, got)
}
