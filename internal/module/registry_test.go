package module

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/yanizio/agencysite/internal/component"
	"github.com/yanizio/agencysite/internal/config"
)

func TestRegisterAndMount(t *testing.T) {
	Register("/ping", func(env *component.Env, w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong " + env.SiteName()))
	})
	Register("/alpha", func(_ *component.Env, w http.ResponseWriter, _ *http.Request) {})

	assert.NotNil(t, Lookup("/ping"))
	assert.Nil(t, Lookup("/absent"))
	assert.Equal(t, []string{"/alpha", "/ping"}, Paths())

	r := chi.NewRouter()
	Mount(r, &component.Env{Config: &config.Config{SiteName: "S"}})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "pong S", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
