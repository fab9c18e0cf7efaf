// Package api exposes the slideshow over HTTP: sensor-style status
// endpoints, service operations, and the image proxy that hides short-lived
// signed download URLs from consumers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/spframe/spframe/internal/config"
	"github.com/spframe/spframe/internal/logging"
	"github.com/spframe/spframe/internal/slideshow"
)

// Server hosts the HTTP surface on top of the coordinator.
type Server struct {
	coordinator *slideshow.Coordinator
	engine      *gin.Engine
	httpServer  *http.Server
	apiKeys     []string
}

// NewServer builds the gin engine and registers all routes.
func NewServer(cfg *config.Config, coordinator *slideshow.Coordinator) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(logging.GinLogrusLogger(), logging.GinLogrusRecovery())

	s := &Server{
		coordinator: coordinator,
		engine:      engine,
		apiKeys:     cfg.APIKeys,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/api/sharepoint_photos/image/:session/:photo", s.handleImageProxy)

	s.engine.GET("/api/status", s.handleStatus)
	s.engine.GET("/api/photos", s.handlePhotos)
	s.engine.GET("/api/folders", s.handleFolders)

	services := s.engine.Group("/api", s.authMiddleware())
	services.POST("/refresh", s.handleRefresh)
	services.POST("/select_folder", s.handleSelectFolder)
	services.POST("/refresh_token", s.handleRefreshToken)
}

// authMiddleware gates the mutating service routes behind the configured
// API keys. With no keys configured all requests pass.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(s.apiKeys) == 0 {
			c.Next()
			return
		}
		key := c.GetHeader("X-Api-Key")
		if key == "" {
			const bearerPrefix = "Bearer "
			if auth := c.GetHeader("Authorization"); len(auth) > len(bearerPrefix) && auth[:len(bearerPrefix)] == bearerPrefix {
				key = auth[len(bearerPrefix):]
			}
		}
		for _, allowed := range s.apiKeys {
			if key == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
	}
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("api: listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Engine exposes the underlying gin engine for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }
