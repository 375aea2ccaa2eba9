package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/agencysite/internal/logger"
)

// RequestLogger binds a request-scoped logger (carrying the chi request
// ID) into the context and writes one access line per request.  Mount it
// after chi's RequestID middleware.
func RequestLogger(base *zap.SugaredLogger) func(http.Handler) http.Handler {
	if base == nil {
		base = zap.S()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := base.With("req_id", chimw.GetReqID(r.Context()))
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), log)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			kv := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"dur", time.Since(start).Round(time.Microsecond),
				"remote", r.RemoteAddr,
			}
			switch {
			case status >= 500:
				log.Errorw("http request", kv...)
			case status >= 400:
				log.Warnw("http request", kv...)
			default:
				log.Debugw("http request", kv...)
			}
		})
	}
}
