package server

import (
	"context"
	"net/http"
	"time"

	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/logger"
	"github.com/teranos/semls/version"
)

// ShutdownTimeout bounds how long Stop waits for connections to finish.
const ShutdownTimeout = 5 * time.Second

func (s *Server) getState() ServerState {
	return ServerState(s.state.Load())
}

func (s *Server) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", "new_state", newState.String())
}

func (st ServerState) String() string {
	switch st {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// HealthResponse is served on /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	State    string `json:"state"`
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	info := version.Get()
	state := s.getState()
	status := http.StatusOK
	resp := HealthResponse{
		Status:   "ok",
		State:    state.String(),
		Version:  info.Version,
		Commit:   info.Short(),
		Sessions: s.Sessions(),
	}
	if state != ServerStateRunning {
		status = http.StatusServiceUnavailable
		resp.Status = "unavailable"
	}
	if err := writeJSON(w, status, resp); err != nil {
		s.logger.Warnw("Failed to write health response", logger.FieldError, err)
	}
}

// Stop drains the server: it stops accepting connections, closes the open
// ones so their sessions end, and waits up to ShutdownTimeout.
func (s *Server) Stop() error {
	if s.getState() == ServerStateStopped {
		return nil
	}
	s.logger.Infow("Initiating server shutdown")
	s.setState(ServerStateDraining)

	var shutdownErr error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = errors.Wrap(err, "failed to shut down http server")
		}
		cancel()
	}

	// hijacked connections are not closed by http.Server.Shutdown
	s.mu.Lock()
	conns := make([]interface{ Close() error }, 0, len(s.handlers))
	for _, conn := range s.handlers {
		conns = append(conns, conn)
	}
	s.mu.Unlock()
	if len(conns) > 0 {
		s.logger.Infow("Closing LSP connections", logger.FieldCount, len(conns))
		for _, c := range conns {
			c.Close()
		}
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Infow("All connections stopped cleanly")
	case <-time.After(ShutdownTimeout):
		s.logger.Warnw("Connection shutdown timed out", "timeout", ShutdownTimeout)
	}

	s.setState(ServerStateStopped)
	s.logger.Infow("Server shutdown complete")
	return shutdownErr
}
