package requestinfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/avct/uasurfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.6367.91 Safari/537.36"

func TestEnrich_AttachesInfo(t *testing.T) {
	var info *RequestInfo
	h := Enrich(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/contact?utm_source=newsletter&utm_medium=email&utm_campaign=spring", nil)
	req.Header.Set("User-Agent", chromeMac)
	req.Header.Set("Accept-Language", "en-GB;q=0.9, fr")
	req.Header.Set("X-Forwarded-For", "garbage, 203.0.113.7, 10.0.0.1")
	req.Header.Set("Referer", "https://search.example/?q=agency")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, info)
	assert.Equal(t, "Chrome", info.UA.Browser)
	assert.Equal(t, "Desktop", info.UA.Device)
	assert.Equal(t, "en-gb", info.UA.PrimaryLang)
	assert.False(t, info.UA.IsBot)
	assert.Equal(t, "203.0.113.7", info.Geo.IP.String())

	meta := info.Meta()
	assert.Equal(t, "203.0.113.7", meta.IP)
	assert.Equal(t, "newsletter", meta.UTMSource)
	assert.Equal(t, "email", meta.UTMMedium)
	assert.Equal(t, "spring", meta.UTMCampaign)
	assert.Equal(t, "https://search.example/?q=agency", meta.Referrer)
}

func TestClientIP_FallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:5555"
	assert.Equal(t, "198.51.100.4", clientIP(req).String())

	req.Header.Set("X-Real-Ip", "192.0.2.1")
	assert.Equal(t, "192.0.2.1", clientIP(req).String())
}

func TestMeta_NilSafe(t *testing.T) {
	assert.Zero(t, SubmissionMeta(context.Background()))
}

func TestInitGeo(t *testing.T) {
	require.NoError(t, InitGeo(""))
	assert.Error(t, InitGeo("/does/not/exist.mmdb"))
	require.NoError(t, CloseGeo())
}

func TestTrimVersion(t *testing.T) {
	tests := []struct {
		in   [3]int
		want string
	}{
		{[3]int{124, 0, 6367}, "124.0.6367"},
		{[3]int{17, 4, 0}, "17.4"},
		{[3]int{0, 0, 0}, "0"},
	}
	for _, tc := range tests {
		v := uasurfer.Version{Major: tc.in[0], Minor: tc.in[1], Patch: tc.in[2]}
		if got := trimVersion(v); got != tc.want {
			t.Errorf("trimVersion(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClip_CountsRunes(t *testing.T) {
	tests := map[string]struct {
		in   string
		n    int
		want string
	}{
		"short":      {"spring", 128, "spring"},
		"ascii":      {"abcdef", 3, "abc"},
		"multi-byte": {"crème brûlée", 4, "crèm"},
		"exact":      {"日本語", 3, "日本語"},
		"cut cjk":    {"日本語", 2, "日本"},
		"zero":       {"abc", 0, ""},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := clip(tc.in, tc.n)
			assert.Equal(t, tc.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestEnrich_ClipsCampaignOnRuneBoundary(t *testing.T) {
	var info *RequestInfo
	h := Enrich(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info = FromContext(r.Context())
	}))

	// The leading ASCII byte puts byte 128 inside a two-byte rune.
	src := "x" + strings.Repeat("é", 200)
	req := httptest.NewRequest(http.MethodGet, "/?utm_source="+url.QueryEscape(src), nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, info)
	got := info.Meta().UTMSource
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 128, utf8.RuneCountInString(got))
	assert.Equal(t, "x"+strings.Repeat("é", 127), got)
}
