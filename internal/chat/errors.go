package chat

import "errors"

var (
	// ErrInvalidName is returned when a display name is blank or whitespace-only.
	ErrInvalidName = errors.New("invalid name: must not be blank")

	// ErrInvalidMessage is returned when a chat message has no sender or an
	// unknown kind.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrNotJoined is returned by Send before a successful Join or after Close.
	ErrNotJoined = errors.New("session has not joined")

	// ErrAlreadyJoined is returned by a second Join on the same session.
	ErrAlreadyJoined = errors.New("session already joined")

	// ErrSessionClosed is returned by Join after Close.
	ErrSessionClosed = errors.New("session closed")

	// ErrHubClosed is returned by Join when the hub has been shut down.
	ErrHubClosed = errors.New("hub is shut down")
)
