package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := New()

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.SetSubscribers(3)
	m.MessagePublished("chat")
	m.MessagePublished("chat")
	m.MessagePublished("system")
	m.HandlerPanicked()
	m.CommandRejected("not_joined")

	body := scrape(t, m)
	assert.Contains(t, body, "roomcast_sessions 1")
	assert.Contains(t, body, "roomcast_hub_subscribers 3")
	assert.Contains(t, body, `roomcast_messages_published_total{kind="chat"} 2`)
	assert.Contains(t, body, `roomcast_messages_published_total{kind="system"} 1`)
	assert.Contains(t, body, "roomcast_handler_panics_total 1")
	assert.Contains(t, body, `roomcast_commands_rejected_total{code="not_joined"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.SessionOpened()
		m.SessionClosed()
		m.SetSubscribers(1)
		m.MessagePublished("chat")
		m.HandlerPanicked()
		m.CommandRejected("internal")
	})

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.MessagePublished("chat")

	body := scrape(t, m)
	assert.Contains(t, body, `roomcast_messages_published_total{kind="chat"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
