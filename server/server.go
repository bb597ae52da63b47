// Package server exposes the language service over LSP, on stdio for a
// single editor or over WebSocket for any number of them. Every connection
// gets its own Session; they share the vocabulary fetcher and cache.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	glspserver "github.com/tliron/glsp/server"
	"go.uber.org/zap"

	"github.com/teranos/semls/am"
	"github.com/teranos/semls/logger"
)

// ServerState represents the server lifecycle state
type ServerState int32

const (
	ServerStateRunning  ServerState = iota // accepting connections
	ServerStateDraining                    // shutdown in progress
	ServerStateStopped                     // shutdown complete
)

// Server owns the transports and the sessions running on them.
type Server struct {
	res    *Resources
	logger *zap.SugaredLogger

	cfgMu sync.RWMutex
	cfg   *am.Config

	upgrader   websocket.Upgrader
	httpServer *http.Server

	mu       sync.Mutex
	handlers map[*GLSPHandler]*websocket.Conn

	state  atomic.Int32
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server. res may be nil, which disables vocabularies.
func New(cfg *am.Config, res *Resources, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		res:      res,
		logger:   log,
		cfg:      cfg,
		handlers: make(map[*GLSPHandler]*websocket.Conn),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.state.Store(int32(ServerStateRunning))
	return s
}

// Config returns the configuration new sessions start from.
func (s *Server) Config() *am.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// SetConfig replaces the configuration for sessions started from now on.
// Running sessions keep theirs. It matches am.ReloadCallback.
func (s *Server) SetConfig(cfg *am.Config) error {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	s.logger.Infow("Configuration reloaded for new sessions")
	return nil
}

func (s *Server) newHandler() *GLSPHandler {
	return NewGLSPHandler(s.ctx, s.Config(), s.res, s.logger)
}

// RunStdio serves one editor on stdin/stdout until the stream closes.
func (s *Server) RunStdio() error {
	h := s.newHandler()
	defer h.Close()

	s.logger.Infow("Serving LSP on stdio")
	return glspserver.NewServer(h.Protocol(), serverName, false).RunStdio()
}

// Routes returns the HTTP handler: the LSP WebSocket on /lsp and a health
// probe on /healthz.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/lsp", s.HandleGLSPWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves WebSocket connections on addr until Stop.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.Infow("Serving LSP over WebSocket",
		logger.FieldAddress, addr,
		"path", "/lsp",
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// HandleGLSPWebSocket upgrades HTTP to WebSocket and serves LSP on it
func (s *Server) HandleGLSPWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.getState() != ServerStateRunning {
		s.unavailable(w)
		return
	}
	s.logger.Infow("LSP WebSocket connection request", "remote", r.RemoteAddr)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("Failed to upgrade WebSocket", logger.FieldError, err)
		return
	}

	h := s.newHandler()
	s.mu.Lock()
	s.handlers[h] = conn
	s.mu.Unlock()

	s.wg.Add(1)
	defer func() {
		h.Close()
		s.mu.Lock()
		delete(s.handlers, h)
		s.mu.Unlock()
		s.wg.Done()
		s.logger.Infow("LSP WebSocket connection closed", "remote", r.RemoteAddr)
	}()

	// blocks until the connection closes
	glspserver.NewServer(h.Protocol(), serverName, false).ServeWebSocket(conn)
}

// Sessions returns the number of live WebSocket connections.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}
