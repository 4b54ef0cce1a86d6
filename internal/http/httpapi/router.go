package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mediagen/internal/http/handlers"
	"mediagen/internal/infra"
	"mediagen/internal/middleware"
)

// Options carries the cross-cutting settings the router applies.
type Options struct {
	Logger          *infra.Logger
	Recorder        middleware.HTTPRecorder
	AllowedOrigins  []string
	RateLimitPerMin int
	AdminJWTSecret  string
	// TrustProxy honours X-Forwarded-For and X-Real-IP. Enable only behind a
	// proxy that overwrites them, since rate limiting keys on the result.
	TrustProxy bool
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(
		chimw.Recoverer,
		middleware.Logger(*logger),
		middleware.CORS(opts.AllowedOrigins),
	)
	if opts.Recorder != nil {
		r.Use(middleware.Metrics(opts.Recorder))
	}

	r.Get("/health", app.Health)
	r.Get("/metrics", app.MetricsHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin))

			r.Post("/operations", app.LaunchOperation)
			r.Post("/operations/status", app.PollOperation)
			r.Get("/operations/*", app.OperationStatus)

			r.With(middleware.AdminJWT(opts.AdminJWTSecret)).Post("/auth", app.Authenticate)
		})
	})

	return r
}
