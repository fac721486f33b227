package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"atlashub/cmd/atlas-service/internal/domain"
	"atlashub/cmd/atlas-service/internal/service"
)

// HTTPServer serves the chat API, health probes and metrics.
type HTTPServer struct {
	engine  *gin.Engine
	server  *http.Server
	service *service.ChatService
	repo    domain.PoliticalData
	logger  log.Logger
	log     *log.Helper
}

// NewHTTPServer builds the gin engine with middleware and routes.
// repo may be nil; readiness then reports degraded.
func NewHTTPServer(srv *service.ChatService, repo domain.PoliticalData, logger log.Logger) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &HTTPServer{
		engine:  engine,
		service: srv,
		repo:    repo,
		logger:  logger,
		log:     log.NewHelper(log.With(logger, "module", "http-server")),
	}

	s.registerMiddleware()
	s.registerRoutes()

	return s
}

func (s *HTTPServer) registerMiddleware() {
	s.engine.Use(RecoveryMiddleware(s.logger))
	s.engine.Use(CORSMiddleware())
	s.engine.Use(TracingMiddleware())
	s.engine.Use(LoggingMiddleware(s.logger))
}

func (s *HTTPServer) registerRoutes() {
	api := s.engine.Group("/api/v1")
	{
		api.POST("/chat", s.chat)
		api.POST("/chat/clear", s.clearSession)
		api.GET("/sessions/:id", s.getSession)
	}

	s.engine.GET("/health", s.health)
	s.engine.GET("/ready", s.ready)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *HTTPServer) chat(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, service.ChatResponse{
			Success:  false,
			Error:    "invalid request body: " + err.Error(),
			Response: &service.ResponseBody{Suggestions: []string{}},
		})
		return
	}

	resp := s.service.Chat(c.Request.Context(), &req)
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, resp)
}

func (s *HTTPServer) clearSession(c *gin.Context) {
	var req service.ClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, service.ClearResponse{
			Success: false,
			Error:   "invalid request body: " + err.Error(),
		})
		return
	}

	resp := s.service.Clear(c.Request.Context(), &req)
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusNotFound
		if resp.Error == "sessionId is required" {
			status = http.StatusBadRequest
		}
	}
	c.JSON(status, resp)
}

func (s *HTTPServer) getSession(c *gin.Context) {
	resp := s.service.Session(c.Request.Context(), c.Param("id"))
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusNotFound
	}
	c.JSON(status, resp)
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ready reports whether the data backend is reachable. Without a
// backend the service still accepts traffic, degraded.
func (s *HTTPServer) ready(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "database": "not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Start blocks serving on addr until the listener fails or Shutdown
// is called.
func (s *HTTPServer) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	s.log.Infof("http server listening on %s", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.log.Info("http server shutting down")
	return s.server.Shutdown(ctx)
}
