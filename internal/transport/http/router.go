package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mapproperties/internal/platform/metrics"
	"mapproperties/pkg/platform/httputil"
	"mapproperties/pkg/platform/middleware/auth"
	"mapproperties/pkg/platform/middleware/cors"
	"mapproperties/pkg/platform/middleware/metadata"
	"mapproperties/pkg/platform/middleware/recovery"
	"mapproperties/pkg/platform/middleware/request"
	"mapproperties/pkg/platform/middleware/requesttime"
)

const healthCheckTimeout = 2 * time.Second

// Registrar mounts a module's public routes.
type Registrar interface {
	Register(r chi.Router)
}

// AuthenticatedRegistrar mounts routes that require a signed-in user.
type AuthenticatedRegistrar interface {
	RegisterAuthenticated(r chi.Router)
}

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// Config carries everything the router mounts.
type Config struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Tokens  auth.JWTValidator
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer

	Public        []Registrar
	Authenticated []AuthenticatedRegistrar
	// Checks are reported by /api/health. A failing check degrades the service.
	Checks map[string]HealthCheck
}

type bannerResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type healthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// NewRouter builds the application router.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(recovery.Recovery(logger))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(cors.AllowAll)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	if cfg.Tokens != nil {
		r.Use(auth.OptionalAuth(cfg.Tokens, logger))
	}

	r.Get("/", handleBanner)
	r.Get("/api/health", handleHealth(cfg.Checks))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	for _, reg := range cfg.Public {
		reg.Register(r)
	}
	if len(cfg.Authenticated) > 0 && cfg.Tokens != nil {
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(cfg.Tokens, logger))
			for _, reg := range cfg.Authenticated {
				reg.RegisterAuthenticated(r)
			}
		})
	}
	return r
}

func handleBanner(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, &bannerResponse{
		Message: "AI Real Estate Engine is Running",
		Status:  "active",
	})
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp := &healthResponse{
			Status:   "healthy",
			Services: map[string]string{"verification_engine": "ready"},
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Services[name] = "unavailable"
				resp.Status = "degraded"
				continue
			}
			resp.Services[name] = "connected"
		}

		status := http.StatusOK
		if resp.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
