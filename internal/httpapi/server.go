package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/scylladb/vector-store/internal/engine"
	"github.com/scylladb/vector-store/internal/logging"
	"github.com/scylladb/vector-store/internal/metrics"
	"github.com/scylladb/vector-store/internal/nodestate"
	"github.com/scylladb/vector-store/internal/ratelimit"
	"github.com/scylladb/vector-store/pkg/config"
)

// Server is this node's REST API, the same shape as the teacher's
// internal/api.Server: a *gin.Engine plus the service handles its handlers
// close over, with an http.Server lifecycle wrapped around it.
type Server struct {
	router     *gin.Engine
	config     *config.Config
	engine     engine.Handle
	node       nodestate.Handle
	metrics    *metrics.Registry
	httpServer *http.Server
	log        *logging.Logger
}

// NewServer wires a router the way the teacher's NewServer does:
// gin.New() + gin.Recovery(), CORS when enabled, a rate limiter guarding
// the one CPU-bound route, then the /api/v1 route group.
func NewServer(cfg *config.Config, eng engine.Handle, node nodestate.Handle, m *metrics.Registry) *Server {
	log := logging.GetLogger("httpapi")
	log.Info("initializing REST API server")

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.Server.CORS {
		log.Debug("enabling CORS")
		router.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:   []string{"Content-Length", "Retry-After"},
			MaxAge:          12 * time.Hour,
		}))
	}

	s := &Server{
		router:  router,
		config:  cfg,
		engine:  eng,
		node:    node,
		metrics: m,
		log:     log,
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		log.Info("rate limiting enabled")
		limiter = ratelimit.NewLimiter(&cfg.RateLimit)
	}

	s.setupRoutes(limiter)
	return s
}

func (s *Server) setupRoutes(limiter *ratelimit.Limiter) {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/indexes", s.getIndexes)
		v1.GET("/indexes/:keyspace/:index/count", s.getIndexCount)
		v1.POST("/indexes/:keyspace/:index/ann", rateLimitMiddleware(limiter), s.postIndexAnn)
		v1.GET("/info", s.getInfo)
		v1.GET("/status", s.getStatus)
		v1.GET("/metrics", s.getMetrics)
	}

	s.router.GET("/api-docs/openapi.json", s.getOpenAPI)
	s.router.GET("/swagger-ui", s.redirectSwaggerUI)
}

// Router returns the underlying Gin router, for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// StartWithContext starts the HTTP server, blocking until ctx is canceled
// or the server fails, then shuts it down gracefully — the same lifecycle
// shape as the teacher's Server.StartWithContext.
func (s *Server) StartWithContext(ctx context.Context, shutdownTimeout time.Duration) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting REST API server", "address", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping REST API server")
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("server shutdown error", "error", err)
		return err
	}
	s.log.Info("REST API server stopped")
	return nil
}
