// Package server assembles the Gin router and owns the HTTP lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/karimfarra/invoice-billing-service/internal/config"
	"github.com/karimfarra/invoice-billing-service/internal/handler"
	"github.com/karimfarra/invoice-billing-service/internal/middleware"
)

// Server represents the HTTP server for the billing service
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
	log        zerolog.Logger
}

// NewServer creates and configures a new server instance
func NewServer(cfg *config.Config, log zerolog.Logger) *Server {
	if cfg.LogFormat == "json" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(log))

	server := &Server{
		router: router,
		config: cfg,
		log:    log,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	server.setupRoutes()

	return server
}

// GetRouter returns the gin router instance
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// setupRoutes configures the routes that do not depend on handlers
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// API documentation endpoints
	// Access the Swagger UI at http://localhost:8080/api-docs/index.html
	swaggerHandler := ginSwagger.WrapHandler(swaggerFiles.Handler)
	s.router.GET("/api-docs/*any", swaggerHandler)

	s.router.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/api-docs/index.html")
	})
}

// RegisterAPIRoutes mounts the billing handlers under /api.
func (s *Server) RegisterAPIRoutes(
	clients *handler.ClientHandler,
	invoices *handler.InvoiceHandler,
	settings *handler.SettingsHandler,
) {
	api := s.router.Group("/api")
	clients.RegisterRoutes(api)
	invoices.RegisterRoutes(api)
	settings.RegisterRoutes(api)
}

// Start begins listening for requests and handles graceful shutdown
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.log.Info().Int("port", s.config.Port).Msg("server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-quit
	s.log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.log.Info().Msg("server exited gracefully")
	return nil
}
