// Package server exposes the product repository over HTTP JSON.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"product_catalog/domain"
	"product_catalog/util"
)

// Config controls routing and CORS.
type Config struct {
	// RoutePrefix is prepended to every product route, e.g. "/bp".
	RoutePrefix string
	// CORSOrigin is the browser origin allowed to call the API. Empty
	// disables CORS headers.
	CORSOrigin string
}

// Server wires the HTTP routes to a domain.ProductStore.
type Server struct {
	cfg      Config
	engine   *gin.Engine
	handlers *Handlers
	logger   *slog.Logger
}

// New builds the gin engine and registers routes. A nil logger falls back
// to slog.Default().
func New(store domain.ProductStore, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		engine:   gin.New(),
		handlers: NewHandlers(store, logger),
		logger:   logger,
	}

	// route on the escaped path so an id containing "/" stays one segment
	s.engine.UseRawPath = true
	s.engine.UnescapePathValues = true

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestIDMiddleware())
	s.engine.Use(s.loggingMiddleware())
	if cfg.CORSOrigin != "" {
		s.engine.Use(s.corsMiddleware())
	}

	s.registerRoutes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handlers.HealthCheck)

	products := s.engine.Group(s.cfg.RoutePrefix + "/products")
	{
		products.GET("", s.handlers.ListProducts)
		products.GET("/verification/:id", s.handlers.VerifyIdentifier)
		products.GET("/:id", s.handlers.GetProduct)
		products.POST("", s.handlers.CreateProduct)
		products.PUT("/:id", s.handlers.UpdateProduct)
		products.DELETE("/:id", s.handlers.DeleteProduct)
	}
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := util.RequestIDOrNew(c.GetHeader(util.RequestIDHeader))
		c.Set(requestIDKey, id)
		c.Header(util.RequestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware provides request logging.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

// corsMiddleware allows the configured browser origin with credentials.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+util.RequestIDHeader)
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
