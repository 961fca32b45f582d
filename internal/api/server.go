package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/asterisk/internal/core"
	"github.com/example/asterisk/internal/middleware"
)

const readHeaderTimeout = 5 * time.Second

// Endpoints the extension polls; successful reads are logged at Debug.
var quietPaths = []string{"/health", "/v1/fill-commands", "/v1/form-snapshots"}

// BridgeServer is the loopback HTTP endpoint the browser extension talks to.
type BridgeServer struct {
	router     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	logger     *zap.Logger
}

// NewBridgeServer builds the gin engine with its middleware stack and routes.
// Nothing is bound until Start is called.
func NewBridgeServer(state *core.State, logger *zap.Logger) *BridgeServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.RedirectTrailingSlash = false

	// Order matters: the logger sees the final status, including recovered panics.
	router.Use(middleware.RequestLogger(logger, quietPaths...))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORSMiddleware())

	SetupRoutes(router, state, logger)

	return &BridgeServer{
		router: router,
		httpServer: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger: logger,
	}
}

// Handler returns the underlying http.Handler.
func (s *BridgeServer) Handler() http.Handler {
	return s.router
}

// Start binds addr and serves in a background goroutine. A bind failure is
// returned to the caller; nothing is retried.
func (s *BridgeServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding bridge on %s: %w", addr, err)
	}
	s.listener = listener

	s.logger.Info("Bridge listening", zap.String("address", listener.Addr().String()))
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Bridge server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *BridgeServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *BridgeServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
