package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomcast/internal/chat"
	"github.com/Tyrowin/roomcast/internal/metrics"
	"github.com/Tyrowin/roomcast/internal/server"
)

const (
	testOrigin  = "http://localhost:8080"
	readTimeout = 2 * time.Second
)

// frame mirrors the outbound wire format.
type frame struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Kind   string `json:"kind"`
	Seq    uint64 `json:"seq"`
	Code   string `json:"code"`
}

type testEnv struct {
	srv     *server.Server
	hub     *chat.Hub
	http    *httptest.Server
	wsURL   string
	metrics *metrics.Metrics
}

// newTestEnv starts a Server behind httptest. customize may adjust the config.
func newTestEnv(t *testing.T, customize func(cfg *server.Config)) *testEnv {
	t.Helper()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{testOrigin}
	if customize != nil {
		customize(&cfg)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	hub := chat.NewHub(chat.WithLogger(log), chat.WithMetrics(m))
	srv := server.New(cfg, hub, log, m)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
	})

	return &testEnv{
		srv:     srv,
		hub:     hub,
		http:    ts,
		wsURL:   "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
		metrics: m,
	}
}

func newOriginHeader(origin string) http.Header {
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return header
}

// dial opens a WebSocket connection with the allowed test origin.
func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(e.wsURL, newOriginHeader(testOrigin))
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// join dials a connection, joins under name and consumes the announcement.
func (e *testEnv) join(t *testing.T, name string) *websocket.Conn {
	t.Helper()

	conn := e.dial(t)
	sendCommand(t, conn, map[string]string{"type": "join", "name": name})
	notice := readUntil(t, conn, func(f frame) bool {
		return f.Kind == "system" && strings.Contains(f.Text, name+" has joined")
	})
	require.Empty(t, notice.Sender)
	return conn
}

func sendCommand(t *testing.T, conn *websocket.Conn, cmd map[string]string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(cmd))
}

func sendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	sendCommand(t, conn, map[string]string{"type": "message", "text": text})
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

// readUntil reads frames until match returns true and returns that frame.
func readUntil(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()

	for i := 0; i < 20; i++ {
		f := readFrame(t, conn)
		if match(f) {
			return f
		}
	}
	t.Fatal("expected frame not received")
	return frame{}
}

// expectNoFrame asserts nothing arrives on conn within timeout.
func expectNoFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("unexpected frame: %s", data)
	}
}
