package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/haventrip/haventrip-backend/api/responses"
	"github.com/haventrip/haventrip-backend/pkg/config"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
	"github.com/haventrip/haventrip-backend/pkg/logger"
)

const envHeader = "X-Haventrip-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness only.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the API's hard dependencies. A nil pinger is treated as
// not configured and skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		statuses := map[string]string{}
		for name, check := range checks {
			if check == nil {
				statuses[name] = "skipped"
				continue
			}
			if err := check.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(ctx, name+" readiness check failed", err)
				}
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
			statuses[name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": statuses})
	}
}

// ReadinessChecks assembles the named dependency pingers for HealthReady.
func ReadinessChecks(db, redis, pubsub pinger) map[string]pinger {
	return map[string]pinger{
		"database": db,
		"redis":    redis,
		"pubsub":   pubsub,
	}
}
