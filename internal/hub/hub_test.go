package hub_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clov-canvas/internal/domain"
	"clov-canvas/internal/hub"
)

type fakeSession struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	full     bool
}

func (f *fakeSession) Send(message []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.full {
		return false
	}
	f.messages = append(f.messages, message)
	return true
}

func (f *fakeSession) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSession) close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeSession) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func TestHub_BroadcastReachesRoomOnly(t *testing.T) {
	// Arrange
	h := hub.NewHub()
	a, b, other := &fakeSession{}, &fakeSession{}, &fakeSession{}
	h.Register(a, "AB12CD", "a")
	h.Register(b, "AB12CD", "b")
	h.Register(other, "ZZ99ZZ", "c")

	// Act
	n := h.Broadcast("AB12CD", []byte("hello"))

	// Assert
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 0, other.count())
}

func TestHub_BroadcastSkipsClosedAndFull(t *testing.T) {
	h := hub.NewHub()
	open, closed, full := &fakeSession{}, &fakeSession{}, &fakeSession{full: true}
	h.Register(open, "AB12CD", "open")
	h.Register(closed, "AB12CD", "closed")
	h.Register(full, "AB12CD", "full")
	closed.close()

	n := h.Broadcast("AB12CD", []byte("x"))

	assert.Equal(t, 1, n)
	assert.Equal(t, 1, open.count())
	assert.Equal(t, 0, closed.count())
}

func TestHub_BroadcastToEmptyRoomIsNoop(t *testing.T) {
	h := hub.NewHub()

	assert.NotPanics(t, func() {
		assert.Equal(t, 0, h.Broadcast("NOBODY", []byte("x")))
	})
	assert.False(t, h.HasLocalSubscribers("NOBODY"))
}

func TestHub_BroadcastEventEncodesEnvelope(t *testing.T) {
	h := hub.NewHub()
	s := &fakeSession{}
	h.Register(s, "AB12CD", "a")

	_, err := h.BroadcastEvent("AB12CD", domain.EventRoomExpired, map[string]string{"roomCode": "AB12CD"})
	require.NoError(t, err)

	require.Equal(t, 1, s.count())
	var env struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(s.messages[0], &env))
	assert.Equal(t, "room-expired", env.Event)
	assert.Equal(t, "AB12CD", env.Data["roomCode"])
}

func TestHub_RemoveIsIdempotent(t *testing.T) {
	h := hub.NewHub()
	s := &fakeSession{}
	h.Register(s, "AB12CD", "a")
	assert.True(t, h.HasLocalSubscribers("AB12CD"))

	h.Remove(s)
	h.Remove(s)
	h.Remove(&fakeSession{})

	assert.False(t, h.HasLocalSubscribers("AB12CD"))
	assert.ErrorIs(t, h.SendToClient("a", []byte("x")), hub.ErrClientNotLocal)
	assert.Equal(t, 0, h.SessionCount())
}

func TestHub_SendToClient(t *testing.T) {
	h := hub.NewHub()
	s := &fakeSession{}
	h.Register(s, "AB12CD", "a")

	require.NoError(t, h.SendToClient("a", []byte("direct")))
	assert.Equal(t, 1, s.count())
	assert.True(t, h.IsLocalClient("a"))

	assert.ErrorIs(t, h.SendToClient("missing", []byte("x")), hub.ErrClientNotLocal)

	s.close()
	assert.ErrorIs(t, h.SendToClient("a", []byte("x")), hub.ErrClientNotLocal)
	assert.False(t, h.IsLocalClient("a"))
}

func TestHub_SendToClientFullBuffer(t *testing.T) {
	h := hub.NewHub()
	h.Register(&fakeSession{full: true}, "AB12CD", "a")

	assert.ErrorIs(t, h.SendToClient("a", []byte("x")), hub.ErrSendFailed)
}

func TestHub_ReconnectKeepsNewestSession(t *testing.T) {
	h := hub.NewHub()
	oldSession, newSession := &fakeSession{}, &fakeSession{}
	h.Register(oldSession, "AB12CD", "a")
	h.Register(newSession, "AB12CD", "a")

	// The stale session's close callback must not unhook the new one.
	h.Remove(oldSession)

	require.NoError(t, h.SendToClient("a", []byte("x")))
	assert.Equal(t, 1, newSession.count())
	assert.True(t, h.HasLocalSubscribers("AB12CD"))
}

func TestHub_ReRegisterMovesRoom(t *testing.T) {
	h := hub.NewHub()
	s := &fakeSession{}
	h.Register(s, "AB12CD", "a")
	h.Register(s, "ZZ99ZZ", "a")

	assert.False(t, h.HasLocalSubscribers("AB12CD"))
	assert.True(t, h.HasLocalSubscribers("ZZ99ZZ"))
	assert.Equal(t, 1, h.SessionCount())
}

func TestHub_ConcurrentRegisterRemoveBroadcast(t *testing.T) {
	h := hub.NewHub()
	var wg sync.WaitGroup
	sessions := make([]*fakeSession, 200)
	for i := range sessions {
		sessions[i] = &fakeSession{}
	}

	for i, s := range sessions {
		wg.Add(2)
		go func(i int, s *fakeSession) {
			defer wg.Done()
			h.Register(s, "AB12CD", string(rune('a'+i%26))+string(rune('0'+i/26)))
			h.Remove(s)
		}(i, s)
		go func() {
			defer wg.Done()
			h.Broadcast("AB12CD", []byte("tick"))
		}()
	}
	wg.Wait()

	assert.False(t, h.HasLocalSubscribers("AB12CD"))
	assert.Equal(t, 0, h.SessionCount())
}

type closingSession struct {
	fakeSession
}

func (c *closingSession) Close() { c.close() }

func TestHub_DisconnectClosesAndRemoves(t *testing.T) {
	// Arrange
	h := hub.NewHub()
	leaver, stayer := &closingSession{}, &fakeSession{}
	h.Register(leaver, "AB12CD", "a")
	h.Register(stayer, "AB12CD", "b")

	// Act
	h.Disconnect("a")
	h.Disconnect("unknown")

	// Assert
	assert.True(t, leaver.Closed())
	assert.False(t, h.IsLocalClient("a"))
	assert.True(t, h.IsLocalClient("b"))
	assert.Equal(t, 1, h.Broadcast("AB12CD", []byte("after")))
	assert.Equal(t, 0, leaver.count())
}

func TestHub_DisconnectClient(t *testing.T) {
	h := hub.NewHub()
	c := hub.NewClient(h, nil, "AB12CD", "a", nil)
	h.Register(c, "AB12CD", "a")

	h.Disconnect("a")

	assert.True(t, c.Closed())
	assert.False(t, c.Send([]byte("x")))
	assert.Equal(t, 0, h.SessionCount())
}
