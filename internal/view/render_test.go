package view

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/agencysite/internal/theme"
	"github.com/yanizio/agencysite/internal/widget"
)

type echoWidget struct{}

func (echoWidget) ID() string { return "test/echo" }
func (echoWidget) Render(ctx any, params map[string]any) (string, widget.CachePolicy, error) {
	c, _ := ctx.(*Context)
	if params["fail"] == true {
		return "", widget.CacheSkip, errors.New("boom")
	}
	return "<b>" + c.Path + ":" + params["v"].(string) + "</b>", widget.CacheSkip, nil
}

func init() { widget.Register(echoWidget{}) }

func newEngine(t *testing.T) *Engine {
	t.Helper()
	fsys := fstest.MapFS{
		"themes/t/layout.html":        {Data: []byte(`{{ .SiteName }}|{{ block "content" . }}none{{ end }}`)},
		"themes/t/pages/home.html":    {Data: []byte(`{{ define "content" }}home {{ .Data }}{{ end }}{{ define "frag" }}<i>{{ .Data }}</i>{{ end }}`)},
		"themes/t/pages/widget.html":  {Data: []byte(`{{ define "content" }}{{ widget "test/echo" (dict "v" "x") }}{{ end }}`)},
		"themes/t/pages/failing.html": {Data: []byte(`{{ define "content" }}{{ widget "test/echo" (dict "fail" true) }}{{ widget "nope" nil }}{{ end }}`)},
		"themes/t/pages/broken.html":  {Data: []byte(`{{ define "content" }}{{ .Data.Missing.Deeper }}{{ end }}`)},
	}
	th, err := (&theme.Manager{FS: fsys, BaseDir: "themes"}).Load("t", Funcs())
	require.NoError(t, err)
	return New(th, 4)
}

func ctxFor(path string, data any) *Context {
	return NewContext(httptest.NewRequest(http.MethodGet, path, nil), "Site", data)
}

func TestRender_LayoutAndPage(t *testing.T) {
	e := newEngine(t)

	rec := httptest.NewRecorder()
	require.NoError(t, e.Render(ctxFor("/", "hi"), rec, "home", CacheDefault))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Site|home hi", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestRender_Status(t *testing.T) {
	e := newEngine(t)
	ctx := ctxFor("/x", "gone")
	ctx.Status = http.StatusNotFound

	rec := httptest.NewRecorder()
	require.NoError(t, e.Render(ctx, rec, "home", CacheDefault))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRender_WidgetBoundToRequest(t *testing.T) {
	e := newEngine(t)

	rec := httptest.NewRecorder()
	require.NoError(t, e.Render(ctxFor("/a", nil), rec, "widget", CacheDefault))
	assert.Equal(t, "Site|<b>/a:x</b>", rec.Body.String())

	// Same cached set, different request.
	rec = httptest.NewRecorder()
	require.NoError(t, e.Render(ctxFor("/b", nil), rec, "widget", CacheDefault))
	assert.Equal(t, "Site|<b>/b:x</b>", rec.Body.String())
}

func TestRender_WidgetErrorsAreComments(t *testing.T) {
	e := newEngine(t)
	rec := httptest.NewRecorder()
	require.NoError(t, e.Render(ctxFor("/", nil), rec, "failing", CacheDefault))
	assert.Equal(t, "Site|<!-- widget error --><!-- widget not found -->", rec.Body.String())
}

func TestRender_Errors(t *testing.T) {
	e := newEngine(t)

	rec := httptest.NewRecorder()
	err := e.Render(ctxFor("/", nil), rec, "missing", CacheDefault)
	assert.ErrorIs(t, err, ErrPageNotFound)

	rec = httptest.NewRecorder()
	err = e.Render(ctxFor("/", map[string]any{}), rec, "broken", CacheDefault)
	assert.Error(t, err)
	assert.Empty(t, rec.Body.String(), "no partial page on error")
}

func TestRenderToString(t *testing.T) {
	e := newEngine(t)
	out, err := e.RenderToString(ctxFor("/", "f"), "home", "frag")
	require.NoError(t, err)
	assert.Equal(t, "<i>f</i>", string(out))
}

func TestRender_ConcurrentColdCache(t *testing.T) {
	e := newEngine(t)
	e.Purge()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			assert.NoError(t, e.Render(ctxFor("/", "c"), rec, "home", CacheDefault))
			assert.True(t, strings.HasSuffix(rec.Body.String(), "home c"))
		}()
	}
	wg.Wait()
}

func TestContext_Active(t *testing.T) {
	c := ctxFor("/services/web", nil)
	assert.True(t, c.Active("/services"))
	assert.False(t, c.Active("/serv"))
	assert.False(t, c.Active("/"))
	assert.True(t, ctxFor("/", nil).Active("/"))
}

func TestDict(t *testing.T) {
	assert.Equal(t, map[string]any{"a": 1, "b": "x"}, dict("a", 1, "b", "x", "dangling"))
}
