// Package httptransport assembles the HTTP surface: middleware stack, public
// endpoints, authenticated subject endpoints, and the admin review surface.
// Handlers stay thin; business logic lives in the feature services.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformMetrics "attest/internal/platform/metrics"
	"attest/internal/platform/middleware"
	securityHandler "attest/internal/security/handler"
	verificationHandler "attest/internal/verification/handler"
	"attest/pkg/platform/httputil"
)

// Deps carries everything the router mounts.
type Deps struct {
	Verification *verificationHandler.Handler
	Security     *securityHandler.Handler
	Validator    middleware.JWTValidator
	Logger       *slog.Logger
	Metrics      *platformMetrics.Metrics
	// Healthz overrides the default liveness probe when backing stores
	// should be checked too.
	Healthz http.HandlerFunc
}

// NewRouter wires the full endpoint tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Device)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}

	// Unauthenticated surface.
	deps.Security.RegisterPublic(r)
	deps.Verification.RegisterPublic(r)
	healthz := deps.Healthz
	if healthz == nil {
		healthz = func(w http.ResponseWriter, _ *http.Request) {
			httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		}
	}
	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated subject surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		deps.Verification.Register(r)
		deps.Security.Register(r)
	})

	// Admin surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		r.Use(middleware.RequireAdmin(deps.Logger))
		deps.Verification.RegisterAdmin(r)
		deps.Security.RegisterAdmin(r)
	})

	return r
}
