package hub

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"clov-canvas/internal/domain"
)

// Websocket tuning shared by the client pumps.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP offers are the largest frames.
	maxMessageSize = 64 * 1024

	sendBufferSize = 256

	shardCount = 32
)

var (
	// ErrClientNotLocal means the target client has no open connection on
	// this process.
	ErrClientNotLocal = errors.New("hub: client not connected to this process")
	// ErrSendFailed means the client's send buffer was full or closed.
	ErrSendFailed = errors.New("hub: failed to queue message for client")
)

// Session is a connection the Hub can deliver to.
type Session interface {
	// Send queues a message without blocking. It returns false when the
	// session is closed or cannot accept more messages.
	Send(message []byte) bool
	// Closed reports whether the session has been closed.
	Closed() bool
}

type membership struct {
	roomCode string
	clientID string
}

type roomShard struct {
	mu    sync.RWMutex
	rooms map[string]map[Session]struct{}
}

type clientShard struct {
	mu      sync.RWMutex
	clients map[string]Session
}

// Hub is the per-process session registry. It indexes open connections by
// room and by client and delivers frames to them. Rooms and clients are
// spread over independently locked shards; a broadcast copies the recipient
// set under a read lock and sends outside it.
type Hub struct {
	rooms   [shardCount]*roomShard
	clients [shardCount]*clientShard
	members sync.Map // Session -> membership
}

// NewHub creates an empty registry.
func NewHub() *Hub {
	h := &Hub{}
	for i := 0; i < shardCount; i++ {
		h.rooms[i] = &roomShard{rooms: make(map[string]map[Session]struct{})}
		h.clients[i] = &clientShard{clients: make(map[string]Session)}
	}
	return h
}

func shardIndex(key string) uint32 {
	f := fnv.New32a()
	_, _ = f.Write([]byte(key))
	return f.Sum32() % shardCount
}

func (h *Hub) roomShard(roomCode string) *roomShard {
	return h.rooms[shardIndex(roomCode)]
}

func (h *Hub) clientShard(clientID string) *clientShard {
	return h.clients[shardIndex(clientID)]
}

// Register records the session under both indexes. Registering a session
// again moves it to the new room/client. A newer session for the same
// clientID takes over direct delivery.
func (h *Hub) Register(s Session, roomCode, clientID string) {
	if s == nil {
		logrus.Error("Hub: attempted to register a nil session")
		return
	}
	if prev, loaded := h.members.Load(s); loaded {
		if prev.(membership) == (membership{roomCode, clientID}) {
			return
		}
		h.Remove(s)
	}
	h.members.Store(s, membership{roomCode: roomCode, clientID: clientID})

	rs := h.roomShard(roomCode)
	rs.mu.Lock()
	set, ok := rs.rooms[roomCode]
	if !ok {
		set = make(map[Session]struct{})
		rs.rooms[roomCode] = set
	}
	set[s] = struct{}{}
	rs.mu.Unlock()

	cs := h.clientShard(clientID)
	cs.mu.Lock()
	old, replaced := cs.clients[clientID]
	cs.clients[clientID] = s
	cs.mu.Unlock()

	logCtx := logrus.WithFields(logrus.Fields{"room_code": roomCode, "client_id": clientID})
	if replaced && old != s {
		logCtx.Info("Hub: client reconnected, newer session takes over direct delivery")
	}
	logCtx.Debug("Hub: session registered")
}

// Remove drops the session from every index. Calling it more than once or
// for an unknown session is a no-op.
func (h *Hub) Remove(s Session) {
	v, ok := h.members.LoadAndDelete(s)
	if !ok {
		return
	}
	m := v.(membership)

	rs := h.roomShard(m.roomCode)
	rs.mu.Lock()
	if set, ok := rs.rooms[m.roomCode]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(rs.rooms, m.roomCode)
		}
	}
	rs.mu.Unlock()

	cs := h.clientShard(m.clientID)
	cs.mu.Lock()
	if cur, ok := cs.clients[m.clientID]; ok && cur == s {
		delete(cs.clients, m.clientID)
	}
	cs.mu.Unlock()

	logrus.WithFields(logrus.Fields{"room_code": m.roomCode, "client_id": m.clientID}).Debug("Hub: session removed")
}

// Broadcast delivers message to every open session of the room on this
// process and returns how many accepted it. Closed or full sessions are
// skipped.
func (h *Hub) Broadcast(roomCode string, message []byte) int {
	rs := h.roomShard(roomCode)
	rs.mu.RLock()
	set := rs.rooms[roomCode]
	recipients := make([]Session, 0, len(set))
	for s := range set {
		recipients = append(recipients, s)
	}
	rs.mu.RUnlock()

	if len(recipients) == 0 {
		return 0
	}

	delivered := 0
	for _, s := range recipients {
		if s.Closed() {
			continue
		}
		if s.Send(message) {
			delivered++
			continue
		}
		logrus.WithField("room_code", roomCode).Warn("Hub: session send buffer full during broadcast, skipping")
	}
	return delivered
}

// BroadcastEvent encodes an {event, data} frame and broadcasts it.
func (h *Hub) BroadcastEvent(roomCode, event string, data interface{}) (int, error) {
	msg, err := domain.EncodeEnvelope(event, data)
	if err != nil {
		return 0, err
	}
	return h.Broadcast(roomCode, msg), nil
}

// SendToClient delivers message to the client's session on this process.
// It returns ErrClientNotLocal when there is none.
func (h *Hub) SendToClient(clientID string, message []byte) error {
	cs := h.clientShard(clientID)
	cs.mu.RLock()
	s, ok := cs.clients[clientID]
	cs.mu.RUnlock()

	if !ok || s.Closed() {
		return ErrClientNotLocal
	}
	if !s.Send(message) {
		return ErrSendFailed
	}
	return nil
}

// SendEventToClient encodes an {event, data} frame and sends it to one client.
func (h *Hub) SendEventToClient(clientID, event string, data interface{}) error {
	msg, err := domain.EncodeEnvelope(event, data)
	if err != nil {
		return err
	}
	return h.SendToClient(clientID, msg)
}

// HasLocalSubscribers reports whether any session of the room is registered
// on this process.
func (h *Hub) HasLocalSubscribers(roomCode string) bool {
	rs := h.roomShard(roomCode)
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rooms[roomCode]) > 0
}

// IsLocalClient reports whether the client has an open session here.
func (h *Hub) IsLocalClient(clientID string) bool {
	cs := h.clientShard(clientID)
	cs.mu.RLock()
	s, ok := cs.clients[clientID]
	cs.mu.RUnlock()
	return ok && !s.Closed()
}

// Disconnect deregisters the client's session and closes it when the session
// supports closing. Unknown clients are ignored.
func (h *Hub) Disconnect(clientID string) {
	cs := h.clientShard(clientID)
	cs.mu.RLock()
	s, ok := cs.clients[clientID]
	cs.mu.RUnlock()
	if !ok {
		return
	}
	if c, ok := s.(interface{ Close() }); ok {
		c.Close()
	}
	h.Remove(s)
	logrus.WithField("client_id", clientID).Debug("Hub: client disconnected")
}

// SessionCount returns the number of registered sessions.
func (h *Hub) SessionCount() int {
	n := 0
	h.members.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
