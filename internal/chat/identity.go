package chat

import (
	"fmt"
	"strings"
)

// SessionIdentity holds the display name a session chose on join. It is owned
// by exactly one Session and needs no locking of its own.
type SessionIdentity struct {
	displayName string
}

// SetDisplayName stores the trimmed name. Blank and whitespace-only names are
// rejected with ErrInvalidName and leave the current name untouched.
func (id *SessionIdentity) SetDisplayName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("set display name %q: %w", name, ErrInvalidName)
	}
	id.displayName = trimmed
	return nil
}

// DisplayName returns the current name, or "" before a successful join.
func (id *SessionIdentity) DisplayName() string {
	return id.displayName
}
