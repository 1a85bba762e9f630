// Package http provides the gin based HTTP server.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-report/pkg/infra/middleware"
	mwopts "github.com/kart-io/sentinel-report/pkg/options/middleware"
	options "github.com/kart-io/sentinel-report/pkg/options/server/http"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
	"github.com/kart-io/sentinel-report/pkg/utils/response"
)

// Server is the HTTP server implementation.
type Server struct {
	opts   *options.Options
	engine *gin.Engine
	server *http.Server
	addr   net.Addr
}

// Config holds the optional parts of the middleware chain.
type Config struct {
	Middleware *mwopts.Options
	// TracingService enables otelgin spans under this service name when non-empty.
	TracingService string
}

// NewServer creates a new HTTP server and installs the middleware chain.
// Middleware order: recovery, request id, tracing, access log, cors, rate limit, body limit.
func NewServer(serverOpts *options.Options, cfg Config) *Server {
	if serverOpts == nil {
		serverOpts = options.NewOptions()
	}
	mw := cfg.Middleware
	if mw == nil {
		mw = mwopts.NewOptions()
	}
	_ = mw.Complete()

	gin.SetMode(serverOpts.Mode)
	engine := gin.New()
	engine.ContextWithFallback = true

	engine.Use(middleware.Recovery(*mw.Recovery))
	engine.Use(middleware.RequestID(*mw.RequestID))
	if cfg.TracingService != "" {
		engine.Use(middleware.Tracing(cfg.TracingService))
	}
	if mw.Logger != nil {
		engine.Use(middleware.Logger(*mw.Logger))
	}
	if mw.CORS != nil {
		engine.Use(middleware.CORS(*mw.CORS))
	}
	if mw.RateLimit != nil && mw.RateLimit.Enabled {
		engine.Use(middleware.RateLimit(*mw.RateLimit))
	}
	engine.Use(middleware.BodyLimit(serverOpts.MaxBodyBytes))

	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, apierrors.ErrNotFound.WithMessagef("route %s %s not found", c.Request.Method, c.Request.URL.Path))
	})

	return &Server{
		opts:   serverOpts,
		engine: engine,
	}
}

// Name returns the server name.
func (s *Server) Name() string {
	return "http[gin]"
}

// Engine returns the underlying gin.Engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the bound address once started.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Start binds the listen address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	s.addr = ln.Addr()

	s.server = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("HTTP server stopped unexpectedly", "addr", s.addr.String(), "error", err.Error())
		}
	}()

	logger.Infow("HTTP server listening", "addr", s.addr.String())
	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
