// Package server exposes the deliberation pipeline over HTTP: job
// submission, status queries, the per-job websocket event stream, health,
// and prometheus metrics.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/pixelcourt/pixelcourt/internal/config"
	"github.com/pixelcourt/pixelcourt/internal/events"
	"github.com/pixelcourt/pixelcourt/internal/metrics"
	"github.com/pixelcourt/pixelcourt/internal/orchestrator"
	"github.com/pixelcourt/pixelcourt/internal/registry"
)

// Server bundles the HTTP surface and its collaborators.
type Server struct {
	cfg       *config.Config
	registry  *registry.Registry
	hub       *events.Hub
	orch      *orchestrator.Orchestrator
	collector *metrics.Collector
	promReg   *prometheus.Registry
	logger    *logrus.Logger
}

// New creates a server. promReg may be nil to disable the metrics endpoint.
func New(
	cfg *config.Config,
	reg *registry.Registry,
	hub *events.Hub,
	orch *orchestrator.Orchestrator,
	collector *metrics.Collector,
	promReg *prometheus.Registry,
	logger *logrus.Logger,
) *Server {
	return &Server{
		cfg:       cfg,
		registry:  reg,
		hub:       hub,
		orch:      orch,
		collector: collector,
		promReg:   promReg,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(s.cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	r.POST("/api/analyze", s.HandleAnalyze)
	r.GET("/api/job/:jobId", s.HandleJobStatus)
	r.GET("/ws", s.HandleWebSocket)

	if s.promReg != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(s.promReg)))
	}

	return r
}

// corsMiddleware allows all origins so display clients can connect from
// any host.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
