// Package api provides the local HTTP console over a running LSNP node.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zuraxy/lsnp-node/pkg/network"
)

// Server exposes node state and actions over REST for local tooling.
// It binds loopback by default; LSNP has no remote management story.
type Server struct {
	node       *network.Node
	router     *gin.Engine
	addr       string
	limiter    *RateLimiter
	httpServer *http.Server
}

// Config holds server configuration.
type Config struct {
	Addr         string
	EnableCORS   bool
	RateLimit    int // requests per minute, per IP
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the standard console setup.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:8975",
		EnableCORS:   true,
		RateLimit:    100,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer builds the HTTP console around a node.
func NewServer(node *network.Node, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	server := &Server{
		node:    node,
		router:  router,
		addr:    config.Addr,
		limiter: NewRateLimiter(config.RateLimit),
	}

	server.setupMiddleware(config)
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(config *Config) {
	if config.EnableCORS {
		s.router.Use(CORSMiddleware())
	}
	s.router.Use(RateLimitMiddleware(s.limiter))
	s.router.Use(LoggingMiddleware())
	s.router.Use(gin.Recovery())
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)

		v1.GET("/peers", s.handlePeers)
		v1.GET("/peers/:id", s.handlePeer)

		v1.GET("/posts", s.handlePosts)
		v1.POST("/posts", s.handleCreatePost)

		v1.GET("/messages", s.handleMessages)
		v1.POST("/messages", s.handleSendMessage)

		v1.GET("/groups", s.handleGroups)

		v1.POST("/follow", s.handleFollow)
		v1.DELETE("/follow/:id", s.handleUnfollow)

		v1.PUT("/profile", s.handleProfile)
	}

	// Health check endpoint (outside versioning)
	s.router.GET("/health", s.handleHealth)
}

// Start serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		fmt.Printf("🌐 HTTP console on http://%s\n", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("❌ HTTP console error: %v\n", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Stop shuts the server down without waiting on a context.
func (s *Server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
