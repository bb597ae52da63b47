package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(testConfig(), nil, zaptest.NewLogger(t).Sugar())
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		srv.Stop()
		ts.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/lsp"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readResponse skips notifications until the response with id arrives.
func readResponse(t *testing.T, conn *websocket.Conn, id float64) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		if got, ok := msg["id"].(float64); ok && got == id {
			return msg
		}
	}
}

func TestWebSocket_Lifecycle(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"processId":    nil,
			"clientInfo":   map[string]any{"name": "TestClient", "version": "1.0"},
			"capabilities": map[string]any{},
		},
	}))
	resp := readResponse(t, conn, 1)
	assert.Equal(t, "2.0", resp["jsonrpc"])
	result, ok := resp["result"].(map[string]any)
	require.True(t, ok, "initialize result: %v", resp)
	caps, ok := result["capabilities"].(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, caps["hoverProvider"])
	assert.NotNil(t, caps["renameProvider"])
	assert.NotNil(t, caps["semanticTokensProvider"])
	info := result["serverInfo"].(map[string]any)
	assert.Equal(t, serverName, info["name"])

	require.NoError(t, conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "method": "initialized", "params": map[string]any{}}))
	require.NoError(t, conn.WriteJSON(map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/didOpen",
		"params": map[string]any{
			"textDocument": map[string]any{
				"uri":        "file:///p.ttl",
				"languageId": "turtle",
				"version":    1,
				"text":       people,
			},
		},
	}))
	require.NoError(t, conn.WriteJSON(map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "textDocument/hover",
		"params": map[string]any{
			"textDocument": map[string]any{"uri": "file:///p.ttl"},
			"position":     map[string]any{"line": 2, "character": 4},
		},
	}))
	resp = readResponse(t, conn, 2)
	hover, ok := resp["result"].(map[string]any)
	require.True(t, ok, "hover result: %v", resp)
	contents := hover["contents"].(map[string]any)
	assert.Equal(t, "markdown", contents["kind"])
	assert.Contains(t, contents["value"], "ex:Person")

	assert.Equal(t, 1, srv.Sessions())

	require.NoError(t, conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": 3, "method": "shutdown"}))
	readResponse(t, conn, 3)
}

func TestWebSocket_ConcurrentClients(t *testing.T) {
	srv, ts := newTestServer(t)

	const clients = 3
	for i := 0; i < clients; i++ {
		conn := dial(t, ts)
		require.NoError(t, conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"method":  "initialize",
			"params":  map[string]any{"capabilities": map[string]any{}},
		}))
		resp := readResponse(t, conn, 1)
		assert.NotNil(t, resp["result"])
	}
	assert.Equal(t, clients, srv.Sessions())
}

func TestHealth(t *testing.T) {
	srv, ts := newTestServer(t)

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "running", body.State)

	require.NoError(t, srv.Stop())
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestCheckOrigin(t *testing.T) {
	cfg := testConfig()
	srv := New(cfg, nil, zaptest.NewLogger(t).Sugar())

	req := httptest.NewRequest(http.MethodGet, "/lsp", nil)
	assert.True(t, srv.checkOrigin(req), "no origin header")

	cfg.Server.AllowedOrigins = nil
	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, srv.checkOrigin(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, srv.checkOrigin(req))

	cfg.Server.AllowedOrigins = []string{"https://editor.example"}
	req.Header.Set("Origin", "https://editor.example:8443")
	assert.True(t, srv.checkOrigin(req))
	req.Header.Set("Origin", "http://localhost:5173")
	assert.False(t, srv.checkOrigin(req))
}

func TestSetConfig(t *testing.T) {
	srv := New(testConfig(), nil, zaptest.NewLogger(t).Sugar())
	next := testConfig()
	next.Workspace.MaxDocuments = 7
	require.NoError(t, srv.SetConfig(next))
	assert.Equal(t, 7, srv.newHandler().base.Workspace.MaxDocuments)
}

func TestWebSocket_RejectedAfterStop(t *testing.T) {
	srv, _ := newTestServer(t)
	require.NoError(t, srv.Stop())

	rec := httptest.NewRecorder()
	srv.HandleGLSPWebSocket(rec, httptest.NewRequest(http.MethodGet, "/lsp", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "stopped", body.State)
}
