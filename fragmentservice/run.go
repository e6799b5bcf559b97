package fragmentservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/rotisk95/Thalionyx/internal/api"
	"github.com/rotisk95/Thalionyx/internal/api/recovery"
	"github.com/rotisk95/Thalionyx/internal/config"
	"github.com/rotisk95/Thalionyx/internal/events"
	"github.com/rotisk95/Thalionyx/internal/factory"
	"github.com/rotisk95/Thalionyx/internal/health"
	"github.com/rotisk95/Thalionyx/internal/logger"
	"github.com/rotisk95/Thalionyx/internal/services"
	"github.com/rotisk95/Thalionyx/internal/store"
)

// Run starts the fragment service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("fragment-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Int("analysis_threshold", cfg.AnalysisThreshold).
		Msg("Fragment service starting")

	// Cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}

	// Event bus connects fragment saves to the insight analyzer.
	bus := events.NewBus(64)

	fragmentSvc := services.NewFragmentService(st, bus, log)
	insightSvc := services.NewInsightService(st, cfg.AnalysisThreshold, log)
	recommendSvc := services.NewRecommendService(st, insightSvc)
	sessionSvc := services.NewSessionService(st)

	go insightSvc.Watch(ctx, bus)

	// The latest insight set lives in memory; an existing collection needs a
	// run at startup, not just on the next save.
	if err := insightSvc.MaybeAnalyze(ctx); err != nil {
		log.Warn().Err(err).Msg("startup analysis failed")
	}

	router := buildRouter(fragmentSvc, insightSvc, recommendSvc, sessionSvc, log)

	// Start health checkers and bind service health
	svcHealth := startHealthCheckers(ctx, cfg, log, st)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(fragmentSvc *services.FragmentService, insightSvc *services.InsightService, recommendSvc *services.RecommendService, sessionSvc *services.SessionService, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware(log))

	// Fragments
	fragment := api.NewFragmentHandler(fragmentSvc)
	root.HandleFunc("/v1/fragments", fragment.CreateFragment).Methods("POST")
	root.HandleFunc("/v1/fragments", fragment.ListFragments).Methods("GET")
	root.HandleFunc("/v1/fragments/{fragmentId}", fragment.GetFragment).Methods("GET")
	root.HandleFunc("/v1/fragments/{fragmentId}", fragment.DeleteFragment).Methods("DELETE")
	root.HandleFunc("/v1/fragments/{fragmentId}/tags", fragment.AddTag).Methods("POST")
	root.HandleFunc("/v1/fragments/{fragmentId}/ratings", fragment.AddRating).Methods("POST")
	root.HandleFunc("/v1/fragments/{fragmentId}/variations", fragment.AddVariation).Methods("POST")
	root.HandleFunc("/v1/fragments/{fragmentId}/responses", fragment.AddResponse).Methods("POST")
	root.HandleFunc("/v1/fragments/{fragmentId}/metadata", fragment.UpdateMetadata).Methods("PATCH")

	// Selection
	root.HandleFunc("/v1/selection/{fragmentId}", fragment.SelectFragment).Methods("PUT")
	root.HandleFunc("/v1/selection", fragment.ClearSelection).Methods("DELETE")
	root.HandleFunc("/v1/selection", fragment.GetSelection).Methods("GET")

	// Insights and recommendations
	insight := api.NewInsightHandler(insightSvc, recommendSvc)
	root.HandleFunc("/v1/analysis", insight.RunAnalysis).Methods("POST")
	root.HandleFunc("/v1/insights", insight.LatestInsights).Methods("GET")
	root.HandleFunc("/v1/insights/history", insight.InsightHistory).Methods("GET")
	root.HandleFunc("/v1/recommendations", insight.Recommend).Methods("POST")

	// Sessions
	session := api.NewSessionHandler(sessionSvc)
	root.HandleFunc("/v1/sessions", session.SaveSession).Methods("POST")
	root.HandleFunc("/v1/sessions", session.ListSessions).Methods("GET")

	// Health
	healthHandler := api.NewHealthHandler()
	root.HandleFunc("/v1/health", healthHandler.CheckHealth).Methods("GET")

	return root
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	// Checkers start unhealthy and need a first probe cycle.
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
