package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"recipe-box/internal/common/pagination"
	"recipe-box/internal/config"
	hhttp "recipe-box/internal/handler/http"
	hrecipe "recipe-box/internal/handler/http/recipe"
	"recipe-box/internal/handler/http/requestid"
	"recipe-box/internal/handler/http/web"
	"recipe-box/internal/infra/adapter/persistence"
	"recipe-box/internal/infra/db"
	"recipe-box/internal/infra/imageproxy"
	"recipe-box/internal/infra/mealdb"
	"recipe-box/internal/observability/logging"
	"recipe-box/internal/observability/metrics"
	"recipe-box/internal/observability/tracing"
	"recipe-box/internal/render"
	"recipe-box/internal/repository"
	"recipe-box/internal/resilience/retry"
	recipeUC "recipe-box/internal/usecase/recipe"
	searchUC "recipe-box/internal/usecase/search"
	"recipe-box/pkg/security/csp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, "json", cfg.LogLevel)
	slog.SetDefault(logger)

	version := getVersion()

	shutdownTracing, err := tracing.Setup("recipe-box-api", version)
	if err != nil {
		logger.Error("failed to set up tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to shut down tracing", slog.Any("error", err))
		}
	}()

	store := initStore(logger, cfg.Store)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", slog.Any("error", err))
		}
	}()

	components := setupServer(logger, cfg, store, version)
	runServer(logger, cfg.HTTP, components, store, version)
}

// initStore opens the configured key-value backend, retrying while it comes up.
func initStore(logger *slog.Logger, cfg config.StoreConfig) repository.KeyValueStore {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var store repository.KeyValueStore
	err := retry.WithBackoff(ctx, retry.StoreOpenConfig(), func() error {
		var openErr error
		store, openErr = persistence.Open(ctx, cfg)
		return openErr
	})
	if err != nil {
		logger.Error("failed to open recipe store",
			slog.String("backend", cfg.Backend),
			slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("recipe store opened", slog.String("backend", cfg.Backend))
	return store
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler       http.Handler
	SearchLimiter *hhttp.RateLimiter
}

// setupServer builds the services, routes and middleware chain.
func setupServer(logger *slog.Logger, cfg *config.AppConfig, store repository.KeyValueStore, version string) *ServerComponents {
	recipes := recipeUC.NewService(store, cfg.Store.Key, logger)
	if cfg.Store.SeedDefaults {
		seedDefaults(logger, recipes)
	}

	remote := mealdb.NewClient(mealdb.Config{
		BaseURL:     cfg.MealDB.BaseURL,
		Timeout:     cfg.MealDB.Timeout,
		RateLimit:   cfg.MealDB.RateLimit,
		Burst:       cfg.MealDB.Burst,
		MaxBodySize: cfg.MealDB.MaxBodySize,
	})
	search := searchUC.NewService(recipes, remote, logger)

	var images hrecipe.Thumbnailer
	if cfg.Images.Proxy {
		proxy, err := imageproxy.New(imageproxy.Config{
			Height:          cfg.Images.Height,
			MaxBodySize:     cfg.Images.MaxBodySize,
			MaxPixels:       cfg.Images.MaxPixels,
			DenyPrivateIPs:  cfg.Images.DenyPrivateIPs,
			CacheMaxEntries: cfg.Images.CacheMaxEntries,
		})
		if err != nil {
			logger.Error("failed to create image proxy", slog.Any("error", err))
			os.Exit(1)
		}
		images = proxy
	}

	pages, err := render.NewHTML(cfg.Images.Proxy)
	if err != nil {
		logger.Error("failed to parse page templates", slog.Any("error", err))
		os.Exit(1)
	}

	searchLimiter := hhttp.NewRateLimiter(cfg.HTTP.SearchRateLimit, cfg.HTTP.SearchRateWindow)
	logger.Info("search rate limiting initialized",
		slog.Int("limit", cfg.HTTP.SearchRateLimit),
		slog.Duration("window", cfg.HTTP.SearchRateWindow))

	router := mux.NewRouter()
	router.Handle("/health", &hhttp.HealthHandler{
		Store:         store,
		Version:       version,
		RemoteBreaker: remote.Breaker(),
		CSPEnabled:    cfg.HTTP.CSPEnabled,
		CSPReportOnly: cfg.HTTP.CSPReportOnly,
	}).Methods(http.MethodGet)
	router.Handle("/ready", &hhttp.ReadyHandler{Store: store}).Methods(http.MethodGet)
	router.Handle("/live", &hhttp.LiveHandler{}).Methods(http.MethodGet)
	router.Handle("/metrics", hhttp.MetricsHandler()).Methods(http.MethodGet)

	hrecipe.Register(router, hrecipe.Deps{
		Store:         recipes,
		Search:        search,
		Images:        images,
		PaginationCfg: pagination.LoadFromEnv(),
		Logger:        logger,
		SearchLimit:   searchLimiter.Limit,
	})
	web.Register(router, &web.Pages{
		Store:  recipes,
		Search: search,
		HTML:   pages,
		Logger: logger,
	})

	return &ServerComponents{
		Handler:       applyMiddleware(logger, cfg.HTTP, router),
		SearchLimiter: searchLimiter,
	}
}

// seedDefaults offers the built-in recipes to an empty store.
func seedDefaults(logger *slog.Logger, recipes *recipeUC.Service) {
	defaults, err := db.DefaultRecipes()
	if err != nil {
		logger.Error("failed to load default recipes", slog.Any("error", err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := recipes.SeedDefaults(ctx, defaults); err != nil {
		logger.Warn("failed to seed default recipes", slog.Any("error", err))
	}
}

// applyMiddleware wraps the handler with middleware chain.
// Middleware order: CORS → Request ID → Tracing → Recovery → Logging → Input Validation → Metrics → CSP → Timeout
func applyMiddleware(logger *slog.Logger, cfg config.HTTPConfig, handler http.Handler) http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", requestid.RequestIDHeader},
		ExposedHeaders:   []string{requestid.RequestIDHeader, tracing.TraceIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	logger.Info("CORS enabled", slog.Any("allowed_origins", cfg.CORSAllowedOrigins))

	if cfg.CSPEnabled {
		logger.Info("CSP enabled", slog.Bool("report_only", cfg.CSPReportOnly))
	} else {
		logger.Warn("CSP is disabled")
	}

	chain := handler
	// Apply in reverse order (innermost to outermost)
	chain = hhttp.Timeout(cfg.RequestTimeout)(chain)
	chain = hhttp.CSP(hhttp.CSPConfig{
		Enabled:       cfg.CSPEnabled,
		DefaultPolicy: csp.RecipePagePolicy(),
		PathPolicies: map[string]*csp.CSPBuilder{
			"/api/":    csp.StrictPolicy(),
			"/images":  csp.StrictPolicy(),
			"/metrics": csp.StrictPolicy(),
		},
		ReportOnly: cfg.CSPReportOnly,
	})(chain)
	chain = hhttp.MetricsMiddleware(chain)
	chain = hhttp.InputValidation()(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = hhttp.Recover(logger)(chain)
	chain = tracing.Middleware(chain)
	chain = requestid.Middleware(chain)
	chain = corsHandler.Handler(chain)

	return chain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, cfg config.HTTPConfig, components *ServerComponents, store repository.KeyValueStore, version string) {
	// Create a context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupInterval := hhttp.CleanupIntervalFromEnv()
	go hhttp.StartRateLimitCleanup(ctx, components.SearchLimiter, cleanupInterval)
	logger.Info("search rate limit cleanup started", slog.Duration("interval", cleanupInterval))

	if sqlStore, ok := store.(hhttp.SQLBacked); ok {
		go recordPoolStats(ctx, sqlStore, 15*time.Second)
	}

	srv, cancelRequests := newServer(cfg, components.Handler)

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	if err := shutdownServer(srv, cfg.ShutdownTimeout, cancelRequests, cancel); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

// newServer builds the HTTP server. Request contexts derive from a base
// context that only the returned cancel func ends.
func newServer(cfg config.HTTPConfig, handler http.Handler) (*http.Server, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return base
		},
	}, cancel
}

// shutdownServer drains in-flight requests for up to timeout, then cancels
// any request still running and stops the background goroutines.
func shutdownServer(srv *http.Server, timeout time.Duration, cancelRequests, stopBackground context.CancelFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	cancelRequests()
	stopBackground()
	return err
}

// recordPoolStats publishes SQL connection pool gauges until ctx is done.
func recordPoolStats(ctx context.Context, store hhttp.SQLBacked, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := store.DB().Stats()
			metrics.RecordDBStats(stats.InUse, stats.Idle)
		}
	}
}
