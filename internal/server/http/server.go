// Package httpserver is the routing glue over the application services:
// JSON endpoints, cookie/session plumbing, and middleware. Identity is
// resolved here and handed to the services as plain values.
package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mtgvault/mtgvault/internal/errs"
	"github.com/mtgvault/mtgvault/internal/service"
)

// Server wires the gin engine to the application services.
type Server struct {
	engine      *gin.Engine
	auth        service.AuthService
	collections service.CollectionService
	catalog     service.CatalogService
	logger      *zap.Logger
}

// New builds the HTTP server with middleware and routes registered.
func New(auth service.AuthService, collections service.CollectionService, catalog service.CatalogService, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:      gin.New(),
		auth:        auth,
		collections: collections,
		catalog:     catalog,
		logger:      logger,
	}
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())
	s.engine.Use(s.cors())
	s.registerRoutes()
	return s
}

// Handler exposes the engine for http.Server and tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.POST("/register", s.register)
		api.POST("/login", s.login)
		api.POST("/logout", s.logout)

		api.GET("/suggest/:text", s.suggest)
		api.GET("/editions", s.editions)

		api.GET("/collections", s.listCollections)
		api.GET("/collection/:name", s.listEntries)
		api.POST("/add/:collection/:card/:edition/:units", s.addCard)
		api.POST("/add/:collection", s.addCollection)
		api.POST("/reconcile", s.reconcile)

		api.GET("/download/cards", s.downloadCards)
		api.GET("/synchronize/cards", s.synchronizeCards)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", c.GetHeader("Origin"))
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// httpStatus maps sentinel errors onto response codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrAlreadyExists), errors.Is(err, errs.ErrBuildInProgress):
		return http.StatusConflict
	case errors.Is(err, errs.ErrCorruptInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the uniform error envelope.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(httpStatus(err), gin.H{"success": false, "message": err.Error()})
}
