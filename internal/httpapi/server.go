package httpapi

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"vodhub/internal/catalog"
	"vodhub/internal/config"
	"vodhub/internal/middleware"
	"vodhub/internal/pipeline"
	"vodhub/internal/status"
	"vodhub/internal/store"
)

// Server holds the HTTP layer's dependencies. It talks to the catalog and
// artifact store directly for playback and to the scheduler for ingest; it
// never reaches into running jobs.
type Server struct {
	catalog   catalog.Store
	artifacts store.Store
	scheduler *pipeline.Scheduler
	tracker   *status.Tracker
	cfg       *config.Config
	log       zerolog.Logger
	uploadDir string
}

// NewServer creates the HTTP layer and its raw-upload staging directory.
func NewServer(
	cat catalog.Store,
	artifacts store.Store,
	scheduler *pipeline.Scheduler,
	tracker *status.Tracker,
	cfg *config.Config,
	log zerolog.Logger,
) (*Server, error) {
	uploadDir := filepath.Join(cfg.Pipeline.TempDir, "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &Server{
		catalog:   cat,
		artifacts: artifacts,
		scheduler: scheduler,
		tracker:   tracker,
		cfg:       cfg,
		log:       log,
		uploadDir: uploadDir,
	}, nil
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(s.log))
	router.Use(middleware.Metrics())

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.NewRateLimiter(s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst)
	auth := middleware.Auth(s.cfg.Auth.JWTSecret)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/videos/upload", auth, middleware.RateLimit(limiter), s.uploadVideo)
		v1.GET("/videos/:id", s.getVideo)
		v1.GET("/videos/:id/status", s.getVideoStatus)
		v1.GET("/videos/:id/stream", s.streamVideo)
		v1.PUT("/videos/:id", auth, s.updateVideo)
		v1.DELETE("/videos/:id", auth, s.deleteVideo)
	}

	return router
}
