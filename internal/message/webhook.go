// internal/message/webhook.go
//
// Webhook delivery with retries.
//
// Context
// -------
// `webhook` form actions POST the submission as JSON.  Delivery runs inside
// the submit request so a failure can surface in the form banner; transient
// errors (connection resets, 5xx, 429) are retried with backoff by
// go-retryablehttp.  When a secret is configured the body is signed and the
// hex HMAC-SHA256 goes out in X-Signature-256.
package message

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// SignatureHeader carries the body signature.
const SignatureHeader = "X-Signature-256"

// WebhookOptions configure NewWebhookClient.
type WebhookOptions struct {
	Timeout  time.Duration
	RetryMax int
	Secret   string
	Log      *zap.SugaredLogger
}

// WebhookClient posts JSON payloads.
type WebhookClient struct {
	http   *retryablehttp.Client
	secret []byte
}

// NewWebhookClient builds a client with a per-attempt timeout.
func NewWebhookClient(opts WebhookOptions) *WebhookClient {
	c := retryablehttp.NewClient()
	c.RetryMax = opts.RetryMax
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	if opts.Timeout > 0 {
		c.HTTPClient.Timeout = opts.Timeout
	}
	log := opts.Log
	if log == nil {
		log = zap.S()
	}
	c.Logger = leveled{log}
	return &WebhookClient{http: c, secret: []byte(opts.Secret)}
}

// Post marshals payload and delivers it to url.  Any non-2xx final status
// is an error.
func (w *WebhookClient) Post(ctx context.Context, url string, headers map[string]string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("message: webhook marshal: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("message: webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if len(w.secret) > 0 {
		req.Header.Set(SignatureHeader, Sign(w.secret, body))
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("message: webhook post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("message: webhook %s returned %d", url, resp.StatusCode)
	}
	return nil
}

// Sign returns "sha256=<hex hmac>" of body under secret.
func Sign(secret, body []byte) string {
	m := hmac.New(sha256.New, secret)
	m.Write(body)
	return "sha256=" + hex.EncodeToString(m.Sum(nil))
}

// Verify reports whether sig matches body under secret.
func Verify(secret, body []byte, sig string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(sig))
}

/*──── retryablehttp → zap ────*/

type leveled struct{ l *zap.SugaredLogger }

func (z leveled) Error(msg string, kv ...any) { z.l.Errorw(msg, kv...) }
func (z leveled) Info(msg string, kv ...any)  { z.l.Debugw(msg, kv...) }
func (z leveled) Debug(msg string, kv ...any) { z.l.Debugw(msg, kv...) }
func (z leveled) Warn(msg string, kv ...any)  { z.l.Warnw(msg, kv...) }

var _ retryablehttp.LeveledLogger = leveled{}
