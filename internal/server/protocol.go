package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Tyrowin/roomcast/internal/chat"
)

// Inbound command types.
const (
	typeJoin    = "join"
	typeMessage = "message"
)

// Error codes sent back to the client in error frames.
const (
	codeInvalidName    = "invalid_name"
	codeNotJoined      = "not_joined"
	codeAlreadyJoined  = "already_joined"
	codeInvalidCommand = "invalid_command"
	codeRateLimited    = "rate_limited"
	codeInternal       = "internal"
)

const kindError = "error"

var validate = validator.New()

// inboundFrame is a client command: {"type":"join","name":...} or
// {"type":"message","text":...}.
type inboundFrame struct {
	Type string `json:"type" validate:"required,oneof=join message"`
	Name string `json:"name" validate:"max=64"`
	Text string `json:"text"`
}

// outboundFrame is what a client receives: a delivered message, or an error
// reply to one of its own commands.
type outboundFrame struct {
	Sender string     `json:"sender"`
	Text   string     `json:"text"`
	Kind   string     `json:"kind"`
	Seq    uint64     `json:"seq,omitempty"`
	SentAt *time.Time `json:"sent_at,omitempty"`
	Code   string     `json:"code,omitempty"`
}

func decodeInbound(raw []byte) (inboundFrame, error) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return inboundFrame{}, fmt.Errorf("decode command: %w", err)
	}
	frame.Type = strings.ToLower(strings.TrimSpace(frame.Type))
	if err := validate.Struct(frame); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && slices.ContainsFunc(verrs, func(fe validator.FieldError) bool {
			return fe.Field() == "Name"
		}) {
			return inboundFrame{}, fmt.Errorf("validate command: %w: %w", chat.ErrInvalidName, err)
		}
		return inboundFrame{}, fmt.Errorf("validate command: %w", err)
	}
	return frame, nil
}

// commandErrorCode maps a decode or validation failure onto its error code.
func commandErrorCode(err error) string {
	if errors.Is(err, chat.ErrInvalidName) {
		return codeInvalidName
	}
	return codeInvalidCommand
}

// frameFromMessage converts a delivered message into its wire frame.
func frameFromMessage(msg chat.Message) (outboundFrame, error) {
	sentAt := msg.SentAt()
	frame := outboundFrame{
		Sender: msg.Sender(),
		Text:   msg.Text(),
		Seq:    msg.Seq(),
		SentAt: &sentAt,
	}

	switch msg.Kind() {
	case chat.KindChat:
		frame.Kind = chat.KindChat.String()
	case chat.KindSystem:
		frame.Kind = chat.KindSystem.String()
	default:
		return outboundFrame{}, fmt.Errorf("encode message #%d: %w", msg.Seq(), chat.ErrInvalidMessage)
	}
	return frame, nil
}

func errorFrame(code, text string) outboundFrame {
	return outboundFrame{Kind: kindError, Code: code, Text: text}
}

// errorCode maps a session error onto the code reported to the client.
func errorCode(err error) string {
	switch {
	case errors.Is(err, chat.ErrInvalidName):
		return codeInvalidName
	case errors.Is(err, chat.ErrNotJoined):
		return codeNotJoined
	case errors.Is(err, chat.ErrAlreadyJoined):
		return codeAlreadyJoined
	case errors.Is(err, chat.ErrSessionClosed):
		return codeNotJoined
	case errors.Is(err, chat.ErrInvalidMessage):
		return codeInvalidCommand
	default:
		return codeInternal
	}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
