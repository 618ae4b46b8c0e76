package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ic-ufrj/alumnic/internal/api/handler"
	"github.com/ic-ufrj/alumnic/internal/api/middleware"
	"github.com/ic-ufrj/alumnic/internal/api/response"
	"github.com/ic-ufrj/alumnic/internal/services/registration"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger              *slog.Logger
	RegistrationService *registration.Service
	// MetricsGatherer, when set, enables the /metrics endpoint.
	MetricsGatherer prometheus.Gatherer
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	registrationHandler := handler.NewRegistrationHandler(cfg.RegistrationService)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/cadastrar", registrationHandler.Register).Methods(http.MethodPost)

	// Operational endpoints stay outside the /api prefix and skip the
	// request logging.
	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)
	if cfg.MetricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
