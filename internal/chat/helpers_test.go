package chat

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const deliveryTimeout = 2 * time.Second

// recorder is a Handler that remembers every delivery in order.
type recorder struct {
	mu   sync.Mutex
	msgs []Message
	ch   chan Message
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Message, 1024)}
}

func (r *recorder) handle(msg Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	r.ch <- msg
}

func (r *recorder) messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// next waits for the next delivery.
func (r *recorder) next(t *testing.T) Message {
	t.Helper()
	select {
	case msg := <-r.ch:
		return msg
	case <-time.After(deliveryTimeout):
		t.Fatal("timed out waiting for delivery")
		return Message{}
	}
}

// expectNone asserts nothing is delivered within d.
func (r *recorder) expectNone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case msg := <-r.ch:
		t.Fatalf("unexpected delivery: %s", msg)
	case <-time.After(d):
	}
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(func() {
		require.NoError(t, hub.Shutdown(deliveryTimeout))
	})
	return hub
}

func mustChat(t *testing.T, sender, text string) Message {
	t.Helper()
	msg, err := NewChatMessage(sender, text)
	require.NoError(t, err)
	return msg
}
