package factory

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ic-ufrj/alumnic/internal/dependencies/clock"
	"github.com/ic-ufrj/alumnic/internal/dependencies/random"
	"github.com/ic-ufrj/alumnic/internal/directory"
	"github.com/ic-ufrj/alumnic/internal/metrics"
	"github.com/ic-ufrj/alumnic/internal/portal"
	"github.com/ic-ufrj/alumnic/internal/services/registration"
)

// App contains all wired application components
type App struct {
	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Observability
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Services
	Directory    *directory.Gateway
	Verifier     *portal.Verifier
	Registration *registration.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Directory holds the LDAP connection settings (bind credentials
	// are required)
	Directory directory.Config
	// Portal holds the verification portal settings
	// If zero value, defaults to portal.DefaultConfig()
	Portal portal.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	portalCfg := cfg.Portal
	if portalCfg.FormURL == "" {
		portalCfg = portal.DefaultConfig()
	}

	clk := clock.New()
	rnd := random.New()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	gateway := directory.New(cfg.Directory, clk, rnd, m, logger)
	verifier := portal.New(portalCfg, clk, m, logger)

	return newWithDependencies(gateway, verifier, clk, rnd, registry, m, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	gateway *directory.Gateway,
	verifier *portal.Verifier,
	clk clock.Clock,
	rnd random.Random,
	registry *prometheus.Registry,
	m *metrics.Metrics,
	logger *slog.Logger,
) *App {
	registrationService := registration.New(gateway, verifier, m, logger)

	return &App{
		Clock:        clk,
		Random:       rnd,
		Registry:     registry,
		Metrics:      m,
		Directory:    gateway,
		Verifier:     verifier,
		Registration: registrationService,
	}
}
