// internal/session/cookie.go
//
// Visitor cookie and request middleware.
//
// Context
// -------
// Every browser gets an opaque visitor ID the first time it hits the site.
// The cookie value is `<uuid>.<base64url(hmac-sha256(uuid))>` so a client
// cannot pick somebody else's ID.  The middleware resolves the ID through
// the Store and places the *Visitor in the request context.
//
// Notes
// -----
// • A cookie with a bad signature is treated as absent and replaced.
// • The cookie is HttpOnly and SameSite=Lax; Secure follows config.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CookieOptions configure Middleware.
type CookieOptions struct {
	Name   string
	Secret string
	Secure bool
	MaxAge time.Duration // defaults to one year

	// Peek attaches an existing visitor only.  No cookie is issued and no
	// visitor is created; used for operational endpoints.
	Peek bool
}

type ctxKey struct{}

// Middleware attaches the caller's Visitor to the request context, issuing
// a fresh signed cookie when none (or a forged one) was sent.
func Middleware(store *Store, opts CookieOptions) func(http.Handler) http.Handler {
	if opts.Name == "" {
		opts.Name = "site_visitor"
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 365 * 24 * time.Hour
	}
	key := []byte(opts.Secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(opts.Name); err == nil {
				id, _ = verifyCookie(key, c.Value)
			}
			if opts.Peek {
				if v, ok := store.Peek(id); ok && id != "" {
					r = r.WithContext(WithVisitor(r.Context(), v))
				}
				next.ServeHTTP(w, r)
				return
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     opts.Name,
					Value:    signCookie(key, id),
					Path:     "/",
					MaxAge:   int(opts.MaxAge / time.Second),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			v, err := store.Get(id)
			if err != nil {
				zap.S().Warnw("visitor lookup failed", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithVisitor(r.Context(), v)))
		})
	}
}

// WithVisitor returns a copy of ctx carrying v.
func WithVisitor(ctx context.Context, v *Visitor) context.Context {
	return context.WithValue(ctx, ctxKey{}, v)
}

// FromContext returns the Visitor placed by Middleware, or nil.
func FromContext(ctx context.Context) *Visitor {
	v, _ := ctx.Value(ctxKey{}).(*Visitor)
	return v
}

/*──────────────────────────── signing ─────────────────────────────────────*/

func mac(key []byte, id string) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func signCookie(key []byte, id string) string { return id + "." + mac(key, id) }

func verifyCookie(key []byte, value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(mac(key, id))) {
		return "", false
	}
	return id, true
}
