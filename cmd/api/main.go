package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glance/internal/application"
	"glance/internal/config"
	apiinfra "glance/internal/infrastructure/api"
	"glance/internal/infrastructure/github"
	"glance/internal/infrastructure/kvstore"
	"glance/internal/infrastructure/metrics"
	"glance/internal/infrastructure/pubsub"
	"glance/internal/infrastructure/repository"
	"glance/internal/infrastructure/tabs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

func main() {
	// Initialize logger
	bootLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load(bootLogger)
	logger := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open storage
	store, err := kvstore.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to open storage")
	}
	defer store.Close(context.Background())

	// Initialize repositories
	widgetRepo := repository.NewKVWidgetRepository(store, logger)
	integrationRepo := repository.NewKVIntegrationRepository(store, logger)

	// Initialize state and application services
	statePubSub := pubsub.NewStatePubSub(logger)
	state := application.NewCoordinator(widgetRepo, integrationRepo, statePubSub, logger)
	if err := state.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load application state")
	}

	githubClient := github.NewClient(cfg.GitHub.HTTPTimeout, logger)
	browser := tabs.NewMemoryBrowser(logger)

	widgetService := application.NewWidgetService(state, logger)
	accountService := application.NewAccountService(state, githubClient, cfg.GitHub.DefaultAPIURL, logger)
	prService := application.NewPullRequestService(state, githubClient, logger)
	tabGroupService := application.NewTabGroupService(browser, statePubSub, logger)

	go func() {
		if err := tabGroupService.Watch(ctx); err != nil {
			logger.Error().Err(err).Msg("Tab group watcher stopped")
		}
	}()
	go refreshLoop(ctx, prService, cfg.PRRefreshInterval, logger)

	handler := apiinfra.NewHandler(
		state,
		widgetService,
		accountService,
		prService,
		tabGroupService,
		browser,
		statePubSub,
		logger,
	)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	r.Route("/api", handler.Routes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	logger.Info().Str("port", cfg.Port).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
	logger.Info().Msg("Server stopped")
}

// refreshLoop refreshes every github-prs widget on startup and then every interval
func refreshLoop(ctx context.Context, prs *application.PullRequestService, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		logger.Info().Msg("Periodic pull request refresh disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := prs.RefreshAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("Pull request refresh failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
