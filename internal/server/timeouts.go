// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadHeaderTimeout – abort slow-loris headers (5 s)
//   • ReadTimeout       – cap body upload time (10 s)
//   • WriteTimeout      – cap total response time (15 s)
//   • IdleTimeout       – close keep-alives on idle clients (60 s)
//
// This helper centralises those defaults so cmd/web doesn’t repeat
// boilerplate.  Run adds graceful shutdown on context cancellation.
//

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/agencysite/internal/config"
)

// DefaultShutdownTimeout bounds graceful shutdown when config omits it.
const DefaultShutdownTimeout = 10 * time.Second

// New constructs an *http.Server with sensible defaults, overridden by any
// non-zero value in c.
func New(c config.HTTP, handler http.Handler) *http.Server {
	pick := func(v, def time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		return def
	}
	return &http.Server{
		Addr:              c.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       pick(c.ReadTimeout, 10*time.Second),
		WriteTimeout:      pick(c.WriteTimeout, 15*time.Second),
		IdleTimeout:       pick(c.IdleTimeout, 60*time.Second),
		// TLSConfig may be injected by callers (e.g., autocert).
	}
}

// Run serves srv until ctx is cancelled, then shuts down gracefully within
// grace.  It returns the first serve error, or nil after a clean shutdown.
func Run(ctx context.Context, srv *http.Server, grace time.Duration, log *zap.SugaredLogger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return Serve(ctx, srv, ln, grace, log)
}

// Serve is Run with a caller-supplied listener.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration, log *zap.SugaredLogger) error {
	if grace <= 0 {
		grace = DefaultShutdownTimeout
	}
	if log == nil {
		log = zap.S()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infow("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		log.Infow("http server shutting down", "grace", grace)
		if err := srv.Shutdown(sctx); err != nil {
			log.Warnw("http server shutdown incomplete", "err", err)
			return err
		}
		return nil
	})

	return g.Wait()
}
