// internal/form/csrf.go
//
// Forms subsystem: stateless CSRF token utilities.
//
// Context
//   Pages embed a hidden `csrf_token` input generated at render time.  The
//   server verifies this token on POST to ensure the request originated from
//   a form it rendered.  We implement a *stateless* token:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.  Prevents replay across visitors.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – calculated with the configured secret.  Verifies authenticity.
//
//   Validation checks the signature and ensures the timestamp is within
//   MaxAge.  No server-side sessions are required, keeping the system
//   cache-friendly and multi-instance safe.
//
// Workflow
//   •  SetKey(cfg.Security.CSRFKey) once at boot.
//   •  GenerateToken()   → returns token string for renderer.
//   •  VerifyToken(tok)  → constant-time verify; error on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	tokenBytes    = 16 + 8 + sha256.Size // nonce + ts + sig
	defaultMaxAge = 2 * time.Hour        // token valid window
	maxClockSkew  = time.Minute
)

// Token verification failures.
var (
	ErrTokenMalformed = errors.New("form: csrf token malformed")
	ErrTokenExpired   = errors.New("form: csrf token expired")
	ErrTokenForged    = errors.New("form: csrf token signature mismatch")
)

// Tokens issues and verifies CSRF tokens under one key.
type Tokens struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewTokens returns a Tokens for key.  maxAge ≤ 0 means two hours.
func NewTokens(key []byte, maxAge time.Duration) *Tokens {
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return &Tokens{key: append([]byte(nil), key...), maxAge: maxAge, now: time.Now}
}

// Generate creates a new CSRF token.  Call once per form render.
func (t *Tokens) Generate() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(t.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, t.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns nil if tok passes HMAC and age checks.
func (t *Tokens) Verify(tok string) error {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return ErrTokenMalformed
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	// Signature first so a forged timestamp never reports "expired".
	if !hmac.Equal(sig, t.sign(nonce, tsBytes)) {
		return ErrTokenForged
	}

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := t.now()
	if now.Sub(issued) > t.maxAge || issued.Sub(now) > maxClockSkew {
		// Future timestamp (clock skew) or older than maxAge.
		return ErrTokenExpired
	}
	return nil
}

func (t *Tokens) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, t.key)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}

//
// process-wide default
//

var (
	defaultMu     sync.RWMutex
	defaultTokens *Tokens
)

// SetKey installs the process-wide token key.  Config validation enforces
// at least 32 bytes.
func SetKey(key string, maxAge time.Duration) {
	defaultMu.Lock()
	defaultTokens = NewTokens([]byte(key), maxAge)
	defaultMu.Unlock()
}

// defaults returns the installed Tokens, creating an ephemeral random key
// when SetKey was never called (tests, tooling).
func defaults() *Tokens {
	defaultMu.RLock()
	t := defaultTokens
	defaultMu.RUnlock()
	if t != nil {
		return t
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultTokens == nil {
		key := make([]byte, 32)
		_, _ = rand.Read(key)
		zap.S().Warnw("csrf key not configured, using an ephemeral random key")
		defaultTokens = NewTokens(key, 0)
	}
	return defaultTokens
}

// GenerateToken creates a token with the process-wide key.
func GenerateToken() (string, error) { return defaults().Generate() }

// VerifyToken checks tok against the process-wide key.
func VerifyToken(tok string) error { return defaults().Verify(tok) }
