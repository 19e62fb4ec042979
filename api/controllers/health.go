package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/boletera/admin-gateway/api/responses"
	"github.com/boletera/admin-gateway/pkg/config"
	"github.com/boletera/admin-gateway/pkg/logger"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Boletera-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness of the gateway's own dependencies. The
// ticketing backend is deliberately excluded: the gateway can serve cached
// constants and error envelopes while the backend is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Boletera-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		components := map[string]string{}
		ready := true
		for name, pinger := range pingers {
			if pinger == nil {
				components[name] = "not configured"
				continue
			}
			if err := pinger.Ping(ctx); err != nil {
				components[name] = "unreachable"
				ready = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "component", name), "readiness check failed", err)
				}
				continue
			}
			components[name] = "ok"
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status":     state,
			"components": components,
		})
	}
}
