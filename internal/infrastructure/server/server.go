// Package server wires the runtime's collaborators together and serves the
// HTTP surface.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/microshell/runtime/internal/api/http"
	"github.com/microshell/runtime/internal/api/middleware"
	"github.com/microshell/runtime/internal/domain/modules"
	"github.com/microshell/runtime/internal/domain/registry"
	"github.com/microshell/runtime/internal/domain/runtime"
	"github.com/microshell/runtime/internal/domain/styling"
	"github.com/microshell/runtime/internal/infrastructure/config"
	"github.com/microshell/runtime/internal/infrastructure/httpx"
	"github.com/microshell/runtime/internal/infrastructure/logging"
	"github.com/microshell/runtime/internal/infrastructure/monitoring"
	"github.com/microshell/runtime/internal/storage"
)

// Server wraps the HTTP server and runtime dependencies.
type Server struct {
	router       *gin.Engine
	orchestrator *runtime.Orchestrator
	logger       *logging.Logger
	config       *config.Config
	httpServer   *http.Server
}

// New creates a fully wired server instance.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing component runtime",
		zap.String("port", cfg.Server.Port),
		zap.String("registry_url", cfg.Registry.BaseURL),
	)

	metrics := monitoring.NewMetrics()

	registryClient := registry.NewClient(registry.Config{
		BaseURL:  cfg.Registry.BaseURL,
		Timeout:  cfg.Registry.Timeout,
		RetryMax: cfg.Registry.RetryMax,
	}).WithMetrics(metrics)

	assetClient := httpx.New(httpx.Options{
		Timeout:  cfg.Registry.Timeout,
		RetryMax: cfg.Registry.RetryMax,
	})
	styler := styling.NewInjector(assetClient, cfg.Styling.VerifyURLs).WithMetrics(metrics)
	loader := modules.NewLoader(assetClient, cfg.Modules.HookTimeout, cfg.Modules.FetchLimit)

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	orchestrator := runtime.New(registryClient, styler, loader, store, logger).
		WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(monitoring.Middleware(metrics))

	handlers := apihttp.NewHandlers(orchestrator, registryClient, styler, logger)
	handlers.Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		router:       router,
		orchestrator: orchestrator,
		logger:       logger,
		config:       cfg,
	}, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Server listening", zap.String("addr", addr))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts the server down gracefully.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.logger.Sync()
	return nil
}
