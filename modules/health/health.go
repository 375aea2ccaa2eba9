// modules/health/health.go
//
// Liveness and readiness probe.  Reports the database ping (when enabled)
// and the visitor count.  Answers 503 when the database is configured but
// unreachable.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/yanizio/agencysite/internal/component"
	"github.com/yanizio/agencysite/internal/module"
)

func init() { module.Register("/healthz", handler) }

func handler(env *component.Env, w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	out := map[string]any{"status": "ok"}
	if env.Visitors != nil {
		out["visitors"] = env.Visitors.Len()
	}

	if env.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := env.DB.PingContext(ctx); err != nil {
			env.Logger().Warnw("health: database ping failed", "err", err)
			status = http.StatusServiceUnavailable
			out["status"] = "degraded"
			out["database"] = "down"
		} else {
			out["database"] = "up"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(out)
}
