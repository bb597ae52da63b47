package server

import (
	"net/http"
	"strings"
)

// checkOrigin validates WebSocket origins against server.allowed_origins.
// Requests without an Origin header come from non-browser clients and are
// accepted. Matching is by prefix so any port is allowed.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	allowed := s.Config().Server.AllowedOrigins
	if len(allowed) == 0 {
		return strings.HasPrefix(origin, "http://localhost") ||
			strings.HasPrefix(origin, "https://localhost") ||
			strings.HasPrefix(origin, "http://127.0.0.1")
	}
	for _, prefix := range allowed {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	s.logger.Warnw("Rejected WebSocket origin", "origin", origin)
	return false
}
