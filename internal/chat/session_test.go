package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionJoinValidation(t *testing.T) {
	hub := newTestHub(t)
	observer := newRecorder()
	hub.Subscribe(observer.handle)

	session := NewSession(hub, nil)
	for _, name := range []string{"", "   ", "\t\n"} {
		err := session.Join(name)
		require.ErrorIs(t, err, ErrInvalidName, "name %q", name)
		assert.Equal(t, StateUnjoined, session.State())
	}

	observer.expectNone(t, 50*time.Millisecond)
	assert.Equal(t, 1, hub.Len(), "failed joins must not subscribe")
}

func TestSessionJoinTwice(t *testing.T) {
	hub := newTestHub(t)
	session := NewSession(hub, nil)

	require.NoError(t, session.Join("Amy"))
	require.ErrorIs(t, session.Join("Amy"), ErrAlreadyJoined)
	assert.Equal(t, 1, hub.Len())

	session.Close()
	require.ErrorIs(t, session.Join("Amy"), ErrSessionClosed)
}

func TestSessionSendPreconditions(t *testing.T) {
	hub := newTestHub(t)
	observer := newRecorder()
	hub.Subscribe(observer.handle)

	session := NewSession(hub, nil)
	require.ErrorIs(t, session.Send("hello"), ErrNotJoined)
	observer.expectNone(t, 20*time.Millisecond)

	require.NoError(t, session.Join("Amy"))
	assert.Equal(t, KindSystem, observer.next(t).Kind())

	require.NoError(t, session.Send(""))
	require.NoError(t, session.Send("   "))
	observer.expectNone(t, 50*time.Millisecond)

	require.NoError(t, session.Send("hello"))
	msg := observer.next(t)
	assert.Equal(t, KindChat, msg.Kind())
	assert.Equal(t, "Amy", msg.Sender())
	assert.Equal(t, "hello", msg.Text())

	session.Close()
	observer.next(t) // leave notice
	require.ErrorIs(t, session.Send("hello"), ErrNotJoined)
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	hub := newTestHub(t)
	observer := newRecorder()
	hub.Subscribe(observer.handle)

	unjoined := NewSession(hub, nil)
	unjoined.Close()
	unjoined.Close()
	assert.Equal(t, StateClosed, unjoined.State())
	observer.expectNone(t, 20*time.Millisecond)

	joined := NewSession(hub, nil)
	require.NoError(t, joined.Join("Amy"))
	observer.next(t)
	joined.Close()
	joined.Close()

	leave := observer.next(t)
	assert.Equal(t, KindSystem, leave.Kind())
	assert.Contains(t, leave.Text(), "Amy")
	observer.expectNone(t, 50*time.Millisecond)
	assert.Equal(t, 1, hub.Len())
}

// TestSessionScenario walks two participants through joining, chatting and
// leaving.
func TestSessionScenario(t *testing.T) {
	hub := newTestHub(t)

	amyView := newRecorder()
	benView := newRecorder()
	amy := NewSession(hub, amyView.handle)
	ben := NewSession(hub, benView.handle)

	require.NoError(t, amy.Join("Amy"))
	notice := amyView.next(t)
	assert.Equal(t, KindSystem, notice.Kind())
	assert.Empty(t, notice.Sender())
	assert.Contains(t, notice.Text(), "Amy")

	require.NoError(t, ben.Join("Ben"))
	for _, view := range []*recorder{amyView, benView} {
		msg := view.next(t)
		assert.Equal(t, KindSystem, msg.Kind())
		assert.Contains(t, msg.Text(), "Ben")
	}

	require.NoError(t, amy.Send("hi"))
	for _, view := range []*recorder{amyView, benView} {
		msg := view.next(t)
		assert.Equal(t, KindChat, msg.Kind())
		assert.Equal(t, "Amy", msg.Sender())
		assert.Equal(t, "hi", msg.Text())
	}

	ben.Close()
	left := amyView.next(t)
	assert.Contains(t, left.Text(), "Ben")

	require.NoError(t, amy.Send("anyone there?"))
	assert.Equal(t, "anyone there?", amyView.next(t).Text())
	benView.expectNone(t, 50*time.Millisecond)

	assert.Equal(t, "Amy", amy.Name())
	assert.Equal(t, StateJoined, amy.State())
	assert.NotEqual(t, amy.ID(), ben.ID())
}

// TestSessionFailureDoesNotAffectOthers checks a failed Join or Send in one
// session leaves the other sessions' deliveries untouched.
func TestSessionFailureDoesNotAffectOthers(t *testing.T) {
	hub := newTestHub(t)

	amyView := newRecorder()
	amy := NewSession(hub, amyView.handle)
	require.NoError(t, amy.Join("Amy"))
	amyView.next(t)

	broken := NewSession(hub, nil)
	require.ErrorIs(t, broken.Join(" "), ErrInvalidName)
	require.ErrorIs(t, broken.Send("hi"), ErrNotJoined)

	require.NoError(t, amy.Send("still here"))
	assert.Equal(t, "still here", amyView.next(t).Text())
	amyView.expectNone(t, 50*time.Millisecond)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unjoined", StateUnjoined.String())
	assert.Equal(t, "joined", StateJoined.String())
	assert.Equal(t, "closed", StateClosed.String())
}

func TestSessionJoinAfterHubShutdown(t *testing.T) {
	hub := newTestHub(t)
	require.NoError(t, hub.Shutdown(deliveryTimeout))

	rec := newRecorder()
	session := NewSession(hub, rec.handle)

	err := session.Join("Amy")
	require.ErrorIs(t, err, ErrHubClosed)
	assert.Equal(t, StateUnjoined, session.State())
	assert.Empty(t, session.Name())
	assert.Zero(t, hub.Len())
	require.ErrorIs(t, session.Send("hello"), ErrNotJoined)
	rec.expectNone(t, 50*time.Millisecond)
}
