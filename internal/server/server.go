package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/config"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/coordinator"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/embeds"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/frame"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/inject"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/logging"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/monitoring"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/registry"
)

// Server hosts the embed runtime: it renders bootstrap documents for
// frames and exposes registry and metrics surfaces. Frame creation
// policy and cross-origin messaging are host-page concerns and are not
// handled here.
type Server struct {
	router   *gin.Engine
	http     *http.Server
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	coord    *coordinator.Coordinator
	registry *registry.Registry
	fetcher  *inject.Fetcher

	mu       sync.Mutex
	families map[string]*frame.Family
}

// New creates a server with all runtime components wired.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("initializing embed runtime",
		zap.String("port", cfg.Server.Port),
		zap.String("manifest_dir", cfg.Embeds.ManifestDir),
	)

	metrics := monitoring.NewMetrics()
	coord := coordinator.New(logger).WithMetrics(metrics)
	reg := registry.New(logger).WithMetrics(metrics)

	scriptPolicy := inject.URLPolicy{
		RequireHTTPS: cfg.Inject.RequireHTTPS,
		AllowedHosts: cfg.Inject.AllowedHosts,
	}
	if err := embeds.RegisterAll(reg, coord, cfg, scriptPolicy, logger); err != nil {
		return nil, fmt.Errorf("failed to register built-in embeds: %w", err)
	}

	seeder := registry.NewSeeder(reg, cfg.Embeds.ManifestDir, scriptPolicy)
	if _, err := seeder.Seed(); err != nil {
		logger.Warn("embed manifest seeding failed", zap.Error(err))
	}

	fetcher := inject.NewFetcher(inject.FetcherConfig{
		Retries: cfg.Inject.FetchRetries,
		Timeout: time.Duration(cfg.Inject.FetchTimeout) * time.Millisecond,
		MaxSize: cfg.Inject.MaxScriptSize,
	})

	s := &Server{
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		coord:    coord,
		registry: reg,
		fetcher:  fetcher,
		families: make(map[string]*frame.Family),
	}
	s.setupRouter()
	return s, nil
}

// setupRouter configures routes and middleware.
func (s *Server) setupRouter() {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	if s.config.RateLimit.Enabled {
		router.Use(RateLimit(RateLimitConfig{
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
		}))
	}

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	router.GET("/embeds", s.handleListEmbeds)
	router.POST("/frames/:type/render", s.handleRenderFrame)

	s.router = router
}

// Router exposes the configured engine; used by tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it exits.
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("embed runtime listening", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down gracefully.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	}
	_ = s.logger.Sync()
	return nil
}

// family returns the frame family for an ID, creating it on first use.
func (s *Server) family(id string) *frame.Family {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.families[id]
	if !ok {
		f = frame.NewFamily()
		s.families[id] = f
	}
	return f
}
