package chat

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle stage of a Session.
type State uint8

const (
	StateUnjoined State = iota
	StateJoined
	StateClosed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateUnjoined:
		return "unjoined"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Session is one participant's view of the hub. It joins under a display
// name, publishes chat messages, and forwards every message it receives to
// its sink. Close must be called when the connection ends.
type Session struct {
	id   uuid.UUID
	hub  *Hub
	sink Handler

	mu           sync.Mutex
	state        State
	identity     SessionIdentity
	subscription SubscriptionID
}

// NewSession creates an unjoined session bound to hub. sink receives every
// message delivered to the session once it has joined, including its own.
func NewSession(hub *Hub, sink Handler) *Session {
	if sink == nil {
		sink = func(Message) {}
	}
	return &Session{
		id:    uuid.New(),
		hub:   hub,
		sink:  sink,
		state: StateUnjoined,
	}
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Name returns the display name, or "" before a successful Join.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity.DisplayName()
}

// Join sets the display name, subscribes the sink and announces the new
// participant to the room. A rejected name, or a hub that has shut down,
// leaves the session unjoined and publishes nothing.
func (s *Session) Join(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateJoined:
		return ErrAlreadyJoined
	case StateClosed:
		return ErrSessionClosed
	}

	if err := s.identity.SetDisplayName(name); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	sub := s.hub.Subscribe(s.sink)
	if sub.IsZero() {
		s.identity = SessionIdentity{}
		return fmt.Errorf("join %q: %w", name, ErrHubClosed)
	}
	s.subscription = sub
	s.state = StateJoined
	s.hub.Publish(NewSystemNotice(fmt.Sprintf("%s has joined the chat.", s.identity.DisplayName())))
	return nil
}

// Send publishes text as a chat message from this session. Blank text is
// ignored without error.
func (s *Session) Send(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateJoined {
		return ErrNotJoined
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	msg, err := NewChatMessage(s.identity.DisplayName(), text)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	s.hub.Publish(msg)
	return nil
}

// Close unsubscribes the session and, if it had joined, tells the room it
// left. Calling Close more than once is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}
	wasJoined := s.state == StateJoined
	s.state = StateClosed

	if !wasJoined {
		return
	}
	s.hub.Unsubscribe(s.subscription)
	s.hub.Publish(NewSystemNotice(fmt.Sprintf("%s has left the chat.", s.identity.DisplayName())))
}
