package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterConfig holds HTTP-level settings for NewRouter.
type RouterConfig struct {
	AllowedOrigins []string
	CORSMaxAge     int
	MaxBodyBytes   int64
}

// NewRouter creates a chi.Mux with all routes, middleware, and handlers configured.
// db may be nil when the service runs without a settings database.
func NewRouter(sender Sender, db Pinger, cfg RouterConfig, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(RecoverMiddleware(log))
	r.Use(MetricsMiddleware)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Correlation-ID", "apikey", "x-client-info"},
		ExposedHeaders: []string{"X-Correlation-ID"},
		MaxAge:         cfg.CORSMaxAge,
	}))

	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(db))
	r.Handle("/metrics", promhttp.Handler())

	send := SendEmailHandler(sender, cfg.MaxBodyBytes)
	r.Post("/api/v1/send-email", send)
	r.Post("/functions/v1/send-email", send)

	return r
}
