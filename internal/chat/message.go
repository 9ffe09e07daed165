// Package chat implements the broadcast core of roomcast: immutable chat
// messages, per-session identity, the publish/subscribe Hub and the
// Session state machine that ties a connection to the hub.
package chat

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags a Message as user chat or a system notice.
type Kind uint8

const (
	KindChat Kind = iota + 1
	KindSystem
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindSystem:
		return "system"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps a wire name back to its Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "chat":
		return KindChat, nil
	case "system":
		return KindSystem, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, s)
	}
}

func (k Kind) valid() bool {
	return k == KindChat || k == KindSystem
}

// Message is one chat event. It is a value type with no exported fields, so a
// Message cannot change after construction; the hub stamps a copy with its
// sequence number at publish time.
type Message struct {
	sender string
	text   string
	kind   Kind
	sentAt time.Time
	seq    uint64
}

// NewMessage validates and builds a Message. Chat messages require a
// non-blank sender; system notices may have none.
func NewMessage(sender, text string, kind Kind) (Message, error) {
	if !kind.valid() {
		return Message{}, fmt.Errorf("%w: unknown kind %d", ErrInvalidMessage, uint8(kind))
	}
	if kind == KindChat && strings.TrimSpace(sender) == "" {
		return Message{}, fmt.Errorf("%w: chat message without sender", ErrInvalidMessage)
	}

	return Message{
		sender: sender,
		text:   text,
		kind:   kind,
		sentAt: time.Now().UTC(),
	}, nil
}

// NewChatMessage is shorthand for NewMessage(sender, text, KindChat).
func NewChatMessage(sender, text string) (Message, error) {
	return NewMessage(sender, text, KindChat)
}

// NewSystemNotice builds a sender-less system notice.
func NewSystemNotice(text string) Message {
	msg, _ := NewMessage("", text, KindSystem)
	return msg
}

// Sender is the display name of the author, blank for system notices.
func (m Message) Sender() string { return m.sender }

// Text is the message body as published.
func (m Message) Text() string { return m.text }

// Kind reports whether the message is chat or a system notice.
func (m Message) Kind() Kind { return m.kind }

// SentAt is the construction time of the message, in UTC.
func (m Message) SentAt() time.Time { return m.sentAt }

// Seq is the hub-wide publish sequence number, or 0 for a message that has
// not been published yet.
func (m Message) Seq() uint64 { return m.seq }

func (m Message) withSeq(seq uint64) Message {
	m.seq = seq
	return m
}

// String formats the message for logs and debugging.
func (m Message) String() string {
	if m.kind == KindSystem {
		return fmt.Sprintf("#%d [system] %s", m.seq, m.text)
	}
	return fmt.Sprintf("#%d %s: %s", m.seq, m.sender, m.text)
}
