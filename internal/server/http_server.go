package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomcast/internal/chat"
	"github.com/Tyrowin/roomcast/internal/metrics"
)

// Server serves the chat room over HTTP and WebSocket. One Server fronts one
// chat.Hub.
type Server struct {
	cfg      Config
	hub      *chat.Hub
	log      *slog.Logger
	metrics  *metrics.Metrics
	origins  originPolicy
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]struct{}
	closing bool
	wg      sync.WaitGroup

	httpServer *http.Server
}

// New creates a Server for hub. cfg is sanitized; log and m may be nil.
func New(cfg Config, hub *chat.Hub, log *slog.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = slog.Default()
	}
	cfg = sanitizeConfig(cfg)

	s := &Server{
		cfg:     cfg,
		hub:     hub,
		log:     log.With("component", "server"),
		metrics: m,
		clients: make(map[*Client]struct{}),
	}
	s.origins = newOriginPolicy(cfg.AllowedOrigins, s.log)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.httpServer = CreateServer(cfg.Port, s.Routes())
	return s
}

// Config returns the sanitized configuration in use.
func (s *Server) Config() Config {
	return s.cfg
}

// CreateServer creates and configures an HTTP server with the specified port and handler.
// It sets reasonable timeout values for production use.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// ListenAndServe blocks serving HTTP until Shutdown is called, in which case
// it returns nil.
func (s *Server) ListenAndServe() error {
	s.log.Info("server listening",
		"addr", s.httpServer.Addr,
		"allowed_origins", s.origins.origins(),
		"allow_all_origins", s.origins.allowAll)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes every WebSocket session, waits
// for the client pumps to exit, and finally drains the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("HTTP server shutdown error", "error", err)
		errs = append(errs, err)
	}

	closed := s.closeClients()
	s.log.Info("closed client connections", "count", closed)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("timeout waiting for client goroutines")
		errs = append(errs, ctx.Err())
	}

	timeout := s.cfg.ShutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = max(time.Until(deadline), time.Millisecond)
	}
	if err := s.hub.Shutdown(timeout); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		s.log.Info("server shutdown completed")
	}
	return errors.Join(errs...)
}
