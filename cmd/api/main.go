package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mediagen/internal/auth"
	"mediagen/internal/domain"
	"mediagen/internal/http/handlers"
	"mediagen/internal/http/httpapi"
	"mediagen/internal/infra"
	"mediagen/internal/infra/credentials"
	"mediagen/internal/lro"
	"mediagen/internal/metrics"
	"mediagen/internal/providers/genai"
	"mediagen/internal/providers/vertex"
	"mediagen/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	var store *credentials.Store
	if pool != nil {
		defer pool.Close()
		store = credentials.NewStore(infra.NewSQLRunner(pool, logger))
	}

	provider := auth.NewProvider(auth.Options{
		Region:          cfg.Region,
		ProjectOverride: cfg.ProjectID,
		Verify:          cfg.AuthVerify,
		Logger:          &logger,
	})
	syncOpts := auth.SyncOptions{
		Holder:   auth.NewHolder(bootstrapAuth(ctx, provider, cfg, store, logger)),
		Loader:   provider,
		Interval: cfg.AuthRefresh,
		Logger:   &logger,
	}
	if store != nil {
		syncOpts.Source = store
	}

	collector := metrics.NewCollector("mediagen")
	lroOpts := lro.Options{
		Vendor: newVendor(cfg, &logger),
		Models: lro.ModelMap{
			domain.MediaKindImage: cfg.ImageModel,
			domain.MediaKindVideo: cfg.VideoModel,
		},
		Timeout:  cfg.VendorTimeout,
		Observer: collector,
		Logger:   &logger,
	}

	app := &handlers.App{
		Logger:        &logger,
		Launcher:      lro.NewLauncher(lroOpts),
		Poller:        lro.NewTranslator(lroOpts),
		Authenticator: provider,
		Auth:          auth.NewSyncer(syncOpts),
		Locator:       storage.NewLocator(cfg.PublicBaseURL),
		Metrics:       collector.Handler(),
	}
	if store != nil {
		app.Credentials = store
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          &logger,
		Recorder:        collector,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		AdminJWTSecret:  cfg.AdminJWTSecret,
		TrustProxy:      cfg.TrustProxy,
	})
	if cfg.AdminJWTSecret == "" {
		logger.Warn().Msg("ADMIN_JWT_SECRET not set, POST /v1/auth is unauthenticated and never persists")
	}

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().
		Str("addr", server.Addr()).
		Str("backend", cfg.VendorBackend).
		Str("region", cfg.Region).
		Msg("API listening")

	if err := server.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}

// bootstrapAuth resolves the startup context: the configured key first, then the
// stored key, then application default credentials. Failures are logged and the
// service starts unauthenticated so POST /v1/auth can still fix it.
func bootstrapAuth(ctx context.Context, provider *auth.Provider, cfg *infra.Config, store *credentials.Store, logger infra.Logger) *auth.Context {
	ctx, cancel := context.WithTimeout(ctx, cfg.VendorTimeout)
	defer cancel()

	if cfg.ServiceAccount != "" {
		ac, err := provider.FromEnvironment(ctx, []byte(cfg.ServiceAccount))
		if err != nil {
			logger.Error().Err(err).Msg("configured service account rejected")
			return nil
		}
		logger.Info().Str("project", ac.ProjectID).Str("client_email", ac.ClientEmail).Msg("authenticated from environment")
		return ac
	}

	if store != nil {
		ac, err := provider.FromStore(ctx, store)
		switch {
		case err != nil:
			logger.Error().Err(err).Msg("stored service account rejected")
		case ac != nil:
			logger.Info().Str("project", ac.ProjectID).Str("client_email", ac.ClientEmail).Msg("authenticated from credential store")
			return ac
		}
	}

	ac, err := provider.Ambient(ctx)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("application default credentials unusable")
	case ac == nil:
		logger.Warn().Msg("no credentials configured, waiting for POST /v1/auth")
	default:
		logger.Info().Str("project", ac.ProjectID).Msg("authenticated with application default credentials")
	}
	return ac
}

func newVendor(cfg *infra.Config, logger *infra.Logger) lro.Vendor {
	httpClient := &http.Client{Timeout: cfg.VendorTimeout + 5*time.Second}
	switch cfg.VendorBackend {
	case infra.BackendGenAI:
		return genai.NewClient(genai.Options{
			OutputURI:  cfg.OutputURI,
			BaseURL:    cfg.VertexBaseURL,
			HTTPClient: httpClient,
			Logger:     logger,
		})
	default:
		return vertex.NewClient(vertex.Options{
			BaseURL:    cfg.VertexBaseURL,
			Region:     cfg.Region,
			OutputURI:  cfg.OutputURI,
			HTTPClient: httpClient,
			Logger:     logger,
		})
	}
}
