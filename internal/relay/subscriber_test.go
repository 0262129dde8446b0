package relay_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clov-canvas/internal/relay"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []relay.Event
	fail   bool
}

func (h *recordingHandler) record(e relay.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	if h.fail {
		return errors.New("boom")
	}
	return nil
}

func (h *recordingHandler) snapshot() []relay.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]relay.Event(nil), h.events...)
}

func (h *recordingHandler) OnJoinRoom(_ context.Context, e relay.JoinRoom) error { return h.record(e) }
func (h *recordingHandler) OnUpdateState(_ context.Context, e relay.UpdateState) error {
	return h.record(e)
}
func (h *recordingHandler) OnChangeBackground(_ context.Context, e relay.ChangeBackground) error {
	return h.record(e)
}
func (h *recordingHandler) OnStartRecording(_ context.Context, e relay.StartRecording) error {
	return h.record(e)
}
func (h *recordingHandler) OnStartPhoto(_ context.Context, e relay.StartPhoto) error {
	return h.record(e)
}
func (h *recordingHandler) OnAssignHost(_ context.Context, e relay.AssignHost) error {
	return h.record(e)
}
func (h *recordingHandler) OnLeaveRoom(_ context.Context, e relay.LeaveRoom) error { return h.record(e) }
func (h *recordingHandler) OnSignal(_ context.Context, e relay.Signal) error        { return h.record(e) }

func startSubscriber(t *testing.T, handler relay.Handler) (*redis.Client, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	sub := relay.NewSubscriber(client, "clov:", handler, 4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	select {
	case <-sub.Ready():
	case err := <-done:
		t.Fatalf("subscriber exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not become ready")
	}

	return client, func() {
		cancel()
		<-done
		_ = client.Close()
	}
}

func TestSubscriber_DispatchesPublishedEvents(t *testing.T) {
	// Arrange
	handler := &recordingHandler{}
	client, stop := startSubscriber(t, handler)
	defer stop()
	pub := relay.NewPublisher(client, "clov:")
	ctx := context.Background()

	// Act
	require.NoError(t, pub.Publish(ctx, relay.JoinRoom{RoomCode: "AB12CD", ClientID: "p"}))
	require.NoError(t, pub.Publish(ctx, relay.StartPhoto{RoomCode: "ZZ99ZZ", ClientID: "h"}))

	// Assert
	assert.Eventually(t, func() bool { return len(handler.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []relay.Event{
		relay.JoinRoom{RoomCode: "AB12CD", ClientID: "p"},
		relay.StartPhoto{RoomCode: "ZZ99ZZ", ClientID: "h"},
	}, handler.snapshot())
}

func TestSubscriber_SurvivesBadMessagesAndHandlerErrors(t *testing.T) {
	handler := &recordingHandler{fail: true}
	client, stop := startSubscriber(t, handler)
	defer stop()
	ctx := context.Background()

	require.NoError(t, client.Publish(ctx, "clov:room:AB12CD", "not json").Err())
	require.NoError(t, client.Publish(ctx, "clov:room:AB12CD", `{"event":"dance","data":{"roomCode":"AB12CD"}}`).Err())
	require.NoError(t, client.Publish(ctx, "clov:room:AB12CD", `{"event":"join-room","data":{"roomCode":"AB12CD","clientId":"a"}}`).Err())
	require.NoError(t, client.Publish(ctx, "clov:room:AB12CD", `{"event":"join-room","data":{"roomCode":"AB12CD","clientId":"b"}}`).Err())

	assert.Eventually(t, func() bool { return len(handler.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestSubscriber_IgnoresOtherPrefixes(t *testing.T) {
	handler := &recordingHandler{}
	client, stop := startSubscriber(t, handler)
	defer stop()
	ctx := context.Background()

	require.NoError(t, client.Publish(ctx, "other:room:AB12CD", `{"event":"join-room","data":{"roomCode":"AB12CD","clientId":"a"}}`).Err())
	require.NoError(t, client.Publish(ctx, "clov:room:AB12CD", `{"event":"join-room","data":{"roomCode":"AB12CD","clientId":"b"}}`).Err())

	assert.Eventually(t, func() bool { return len(handler.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Len(t, handler.snapshot(), 1)
	assert.Equal(t, "b", handler.snapshot()[0].(relay.JoinRoom).ClientID)
}

type keyRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (k *keyRecorder) HandleExpiredKey(_ context.Context, key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys = append(k.keys, key)
	if key == "panic" {
		panic("handler bug")
	}
}

func (k *keyRecorder) snapshot() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.keys...)
}

func TestExpirationListener_DeliversKeysInOrder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	rec := &keyRecorder{}
	l := relay.NewExpirationListener(client, 0, rec, false, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	<-l.Ready()

	// miniredis has no keyspace notifications; publish what Redis would send.
	for _, key := range []string{"AB12CD", "panic", "ZZ99ZZ"} {
		require.NoError(t, client.Publish(ctx, "__keyevent@0__:expired", key).Err())
	}

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"AB12CD", "panic", "ZZ99ZZ"}, rec.snapshot())

	cancel()
	assert.NoError(t, <-done)
}
