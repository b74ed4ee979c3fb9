package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sanonone/terndb/pkg/engine"
)

// Server holds the network interfaces and the underlying database engine.
type Server struct {
	Engine *engine.Engine

	cfg         Config
	httpServer  *http.Server
	tcpListener net.Listener
	taskManager *TaskManager

	wg sync.WaitGroup
}

// NewServer wires an existing Engine to the HTTP (and optionally TCP)
// interfaces. The Engine must already be open.
func NewServer(eng *engine.Engine, cfg Config) *Server {
	s := &Server{
		Engine:      eng,
		cfg:         cfg,
		taskManager: NewTaskManager(),
	}

	mux := http.NewServeMux()
	s.registerHTTPHandlers(mux)

	// Middleware chain: Recovery -> Logging -> Auth -> Mux.
	// Recovery is outermost so it catches everything below it.
	var handler http.Handler = mux
	handler = s.authMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)

	// Health stays outside the chain so probes skip auth and log noise.
	rootMux := http.NewServeMux()
	rootMux.HandleFunc("GET /healthz", s.handleHealthz)
	rootMux.Handle("/", handler)

	s.httpServer = &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: rootMux,
	}

	return s
}

// Handler returns the full HTTP handler, useful for embedding the API in
// an existing server or for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the configured listeners and blocks until the HTTP server
// stops.
func (s *Server) Run() error {
	if s.cfg.TCPAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.TCPAddr)
		if err != nil {
			return fmt.Errorf("TCP listener failed: %w", err)
		}
		s.tcpListener = ln
		s.wg.Add(1)
		go s.acceptLoop(ln)
		slog.Info("TCP server listening", "addr", s.cfg.TCPAddr)
	}

	slog.Info("HTTP server listening", "addr", s.cfg.HTTPAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server startup failed: %w", err)
	}
	return nil
}

// Shutdown stops the listeners gracefully. It does not close the Engine;
// the caller owns that lifecycle.
func (s *Server) Shutdown() {
	slog.Info("starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if s.tcpListener != nil {
		_ = s.tcpListener.Close()
	}
	s.wg.Wait()
}
