package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clearcomms/linecheck/internal/address"
	"github.com/clearcomms/linecheck/internal/service"
	"github.com/clearcomms/linecheck/pkg/health"
	"github.com/clearcomms/linecheck/pkg/middleware"
)

// RouterConfig holds the dependencies and settings for the HTTP router.
type RouterConfig struct {
	ReviewService      *service.ReviewService
	PlacesClient       *address.OSPlacesClient
	AutocompleteClient *address.AutocompleteClient
	HealthHandler      *health.Handler
	Logger             *slog.Logger
	CORS               middleware.CORSConfig

	// RequestTimeout bounds each request. Reviews poll slow provider APIs,
	// so this must comfortably exceed pollAttempts * pollDelay.
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all linecheck routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("linecheck"))
	r.Use(middleware.Tracing("linecheck"))
	r.Use(middleware.RequestLogger(cfg.Logger))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	reviewHandler := NewReviewHandler(cfg.ReviewService, cfg.Logger)
	addressHandler := NewAddressHandler(cfg.PlacesClient, cfg.AutocompleteClient, cfg.Logger)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", reviewHandler.CreateReview)
		r.Get("/", reviewHandler.ListReviews)
		r.Get("/{id}", reviewHandler.GetReview)
	})

	r.Route("/api/v1/addresses", func(r chi.Router) {
		// Address data changes rarely; let browsers cache lookups briefly.
		r.Use(middleware.CacheControl(300))

		r.Get("/", addressHandler.LookupPostcode)
		r.Get("/autocomplete", addressHandler.Autocomplete)
	})

	return r
}
