package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/teranos/semls/errors"
)

// errorResponse is the body of every non-LSP error on the HTTP side.
type errorResponse struct {
	Error string `json:"error"`
	State string `json:"state,omitempty"`
}

// writeJSON writes v as the response. Probes poll these endpoints, so
// nothing is cacheable.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	h.Set("Content-Length", strconv.Itoa(len(body)+1))
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}

// unavailable rejects a request because the server is not running.
func (s *Server) unavailable(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{
		Error: "server is not accepting sessions",
		State: s.getState().String(),
	})
}

// requireMethod answers 405 with an Allow header unless r uses method.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method " + r.Method + " not allowed"})
	return false
}
