// Package server exposes the compiler and executor over HTTP, and pushes
// list changes to WebSocket clients.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/teranos/pantry/am"
	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/list"
	"github.com/teranos/pantry/logger"
	"github.com/teranos/pantry/plan"
	"github.com/teranos/pantry/plan/executor"
)

// Server serves the pantry HTTP API
type Server struct {
	store    list.Store
	compiler plan.Producer
	executor *executor.Executor
	logger   *zap.SugaredLogger

	allowedOrigins []string
	limiter        *clientLimiter
	upgrader       websocket.Upgrader
	mux            *http.ServeMux

	srvMu      sync.Mutex
	httpServer *http.Server

	clients        map[*Client]bool
	mu             sync.RWMutex
	broadcastDrops atomic.Int64

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server. cfg supplies origins and rate limits.
func New(store list.Store, compiler plan.Producer, exec *executor.Executor, cfg am.ServerConfig, l *zap.SugaredLogger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		store:          store,
		compiler:       compiler,
		executor:       exec,
		logger:         logger.OrNop(l),
		allowedOrigins: cfg.AllowedOrigins,
		limiter:        newClientLimiter(cfg.RateLimitPerSecond, cfg.RateBurst),
		mux:            http.NewServeMux(),
		clients:        make(map[*Client]bool),
		ctx:            ctx,
		cancel:         cancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
	s.setupHTTPRoutes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until Shutdown. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.srvMu.Lock()
	s.httpServer = srv
	s.srvMu.Unlock()

	s.logger.Infow("Server listening", logger.FieldAddress, addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "failed to serve on %s", addr)
	}
	return nil
}

// Shutdown stops accepting requests, disconnects WebSocket clients and
// waits for their goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.srvMu.Lock()
	srv := s.httpServer
	s.srvMu.Unlock()
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.cancel()

	s.mu.RLock()
	for c := range s.clients {
		c.conn.Close()
	}
	s.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.CombineErrors(err, errors.Wrap(ctx.Err(), "websocket clients did not stop"))
	}

	s.logger.Infow("Server stopped", "broadcast_drops", s.broadcastDrops.Load())
	return err
}

// WatchConfig applies floor policy changes from cw to the executor
func (s *Server) WatchConfig(cw *am.ConfigWatcher) {
	cw.OnReload(s.applyConfig)
}

func (s *Server) applyConfig(cfg *am.Config) error {
	policy, err := executor.ParseFloorPolicy(cfg.Executor.FloorPolicy)
	if err != nil {
		return err
	}
	if old := s.executor.FloorPolicy(); old != policy {
		s.executor.SetFloorPolicy(policy)
		s.logger.Infow("Floor policy reloaded",
			logger.FieldPolicy, string(policy),
			"previous", string(old),
		)
	}
	return nil
}

func (s *Server) registerClient(c *Client) {
	s.mu.Lock()
	s.clients[c] = true
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Debugw("WebSocket client connected", logger.FieldClientID, c.id, logger.FieldCount, n)
}

func (s *Server) unregisterClient(c *Client) {
	s.mu.Lock()
	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Debugw("WebSocket client disconnected", logger.FieldClientID, c.id, logger.FieldCount, n)
}

// ClientCount returns the number of connected WebSocket clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// broadcastMessage sends a message to all connected clients.
// Returns the number of clients that accepted the message (channel not full).
func (s *Server) broadcastMessage(msg interface{}) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sent := 0
	for c := range s.clients {
		select {
		case c.send <- msg:
			sent++
		default:
			s.broadcastDrops.Add(1)
		}
	}
	return sent
}
