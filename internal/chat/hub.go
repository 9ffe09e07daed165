package chat

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Tyrowin/roomcast/internal/metrics"
)

// Handler receives every message published to the hub while it is subscribed.
type Handler func(Message)

// SubscriptionID identifies one Subscribe call and cancels it.
type SubscriptionID uuid.UUID

// String returns the canonical UUID form of the ID.
func (id SubscriptionID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the zero ID returned by a shut down hub.
func (id SubscriptionID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

type subscriber struct {
	id      SubscriptionID
	handler Handler
	box     *mailbox
}

// Hub is the publish/subscribe registry shared by every session of a room.
// It keeps the subscriber set in registration order and fans each published
// message out to a snapshot of that set.
//
// Subscribe, Unsubscribe and the snapshot-and-enqueue step of Publish are
// serialized by one mutex. Handlers run outside it, each on its own goroutine
// fed by an unbounded mailbox, so a slow or reentrant handler never blocks the
// hub and every handler observes messages in the hub's publish order.
type Hub struct {
	mu          sync.Mutex
	subscribers []*subscriber
	seq         uint64
	closed      bool

	wg      sync.WaitGroup
	log     *slog.Logger
	metrics *metrics.Metrics // subscriber gauge is written under mu
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger used for handler failures and lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// WithMetrics records subscriber counts, publishes and handler panics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}

// NewHub creates an empty hub that is ready for use.
func NewHub(opts ...Option) *Hub {
	h := &Hub{log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With("component", "hub")
	return h
}

// Subscribe appends handler to the subscriber set and returns its ID. The
// handler receives every message published after Subscribe returns. On a hub
// that has been shut down the handler is ignored and the zero ID is returned.
func (h *Hub) Subscribe(handler Handler) SubscriptionID {
	sub := &subscriber{
		id:      SubscriptionID(uuid.New()),
		handler: handler,
		box:     newMailbox(),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.log.Warn("subscribe on closed hub ignored")
		return SubscriptionID{}
	}
	h.subscribers = append(h.subscribers, sub)
	count := len(h.subscribers)
	h.metrics.SetSubscribers(count)
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		sub.box.drain(func(msg Message) { h.deliver(sub, msg) })
	}()

	h.log.Debug("subscriber registered", "subscription", sub.id.String(), "subscribers", count)
	return sub.id
}

// Unsubscribe removes the subscription. Messages published before the call
// may still be delivered; later ones never are. Unknown or already removed
// IDs are ignored.
func (h *Hub) Unsubscribe(id SubscriptionID) {
	h.mu.Lock()
	idx := slices.IndexFunc(h.subscribers, func(s *subscriber) bool { return s.id == id })
	if idx < 0 {
		h.mu.Unlock()
		return
	}
	sub := h.subscribers[idx]
	h.subscribers = slices.Delete(h.subscribers, idx, idx+1)
	count := len(h.subscribers)
	h.metrics.SetSubscribers(count)
	h.mu.Unlock()

	sub.box.close()
	h.log.Debug("subscriber removed", "subscription", id.String(), "subscribers", count)
}

// Publish stamps msg with the next sequence number and enqueues it for every
// handler subscribed at this instant, in registration order. It returns once
// the message is queued; handlers run asynchronously.
func (h *Hub) Publish(msg Message) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.log.Warn("publish on closed hub dropped", "kind", msg.Kind().String())
		return
	}
	h.seq++
	stamped := msg.withSeq(h.seq)
	for _, sub := range h.subscribers {
		sub.box.push(stamped)
	}
	targets := len(h.subscribers)
	h.mu.Unlock()

	h.metrics.MessagePublished(stamped.Kind().String())
	h.log.Debug("message published", "seq", stamped.Seq(), "kind", stamped.Kind().String(), "targets", targets)
}

// deliver invokes one handler and contains any panic to that handler.
func (h *Hub) deliver(sub *subscriber, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			h.metrics.HandlerPanicked()
			h.log.Error("recovered from panic in handler",
				"subscription", sub.id.String(),
				"seq", msg.Seq(),
				"panic", fmt.Sprint(r))
		}
	}()
	sub.handler(msg)
}

// Len returns the number of current subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Subscribers returns the current subscription IDs in registration order.
func (h *Hub) Subscribers() []SubscriptionID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return lo.Map(h.subscribers, func(s *subscriber, _ int) SubscriptionID {
		return s.id
	})
}

// Shutdown stops the hub: later publishes are dropped, every subscriber is
// removed, and the call waits for queued deliveries to finish. It returns
// context.DeadlineExceeded if they do not finish within timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("initiating hub shutdown")

	h.mu.Lock()
	h.closed = true
	subs := h.subscribers
	h.subscribers = nil
	h.metrics.SetSubscribers(0)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.box.close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hub shutdown completed", "subscribers_closed", len(subs))
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub shutdown timeout reached, some handlers may still be running")
		return context.DeadlineExceeded
	}
}
