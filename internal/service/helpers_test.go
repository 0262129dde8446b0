package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"clov-canvas/internal/domain"
	redisstate "clov-canvas/internal/infra/state/redis"
	"clov-canvas/internal/relay"
	"clov-canvas/internal/repository"
)

const (
	roomCode = "AB12CD"
	hostID   = "11111111-1111-1111-1111-111111111111"
	guestID  = "22222222-2222-2222-2222-222222222222"
	assetURL = "http://cdn.test/assets/"
)

type fakeSession struct {
	mu       sync.Mutex
	messages [][]byte
}

func (f *fakeSession) Send(message []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return true
}

func (f *fakeSession) Closed() bool { return false }

type frame struct {
	Event string
	Data  map[string]interface{}
}

func (f *fakeSession) frames(t *testing.T) []frame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]frame, 0, len(f.messages))
	for _, raw := range f.messages {
		var env struct {
			Event string                 `json:"event"`
			Data  map[string]interface{} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		out = append(out, frame{Event: env.Event, Data: env.Data})
	}
	return out
}

func (f *fakeSession) eventsNamed(t *testing.T, name string) []frame {
	t.Helper()
	var out []frame
	for _, fr := range f.frames(t) {
		if fr.Event == name {
			out = append(out, fr)
		}
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []relay.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e relay.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) published() []relay.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]relay.Event(nil), p.events...)
}

type fakeArchiver struct {
	mu    sync.Mutex
	calls map[string]map[string]domain.CanvasState
}

func (a *fakeArchiver) EnqueueArchive(_ context.Context, code string, states map[string]domain.CanvasState) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.calls == nil {
		a.calls = map[string]map[string]domain.CanvasState{}
	}
	a.calls[code] = states
	return nil
}

func newStateRepo(t *testing.T) (*redisstate.RedisStateRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstate.NewRedisStateRepository(client, ""), mr
}

// seedRoom creates roomCode with hostID as host and guestID as a member.
func seedRoom(t *testing.T, repo repository.StateRepository, ttl time.Duration) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.CreateRoom(ctx, repository.NewRoomState{
		RoomCode:     roomCode,
		HostID:       hostID,
		HostNickname: "host",
		State:        domain.InitialCanvasState(),
		Background:   &domain.BackgroundDescriptor{URL: assetURL + "backgrounds/1.png", Title: "Default"},
		TTL:          ttl,
	}))
	require.NoError(t, repo.JoinRoom(ctx, roomCode, guestID, "guest", domain.InitialCanvasState()))
}
