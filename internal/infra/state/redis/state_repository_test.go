package redisstate_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clov-canvas/internal/domain"
	redisstate "clov-canvas/internal/infra/state/redis"
	"clov-canvas/internal/repository"
)

const (
	roomCode = "AB12CD"
	hostID   = "11111111-1111-1111-1111-111111111111"
	guestID  = "22222222-2222-2222-2222-222222222222"
)

func newRepo(t *testing.T, prefix string) (*redisstate.RedisStateRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstate.NewRedisStateRepository(client, prefix), mr
}

func createRoom(t *testing.T, repo *redisstate.RedisStateRepository) {
	t.Helper()
	err := repo.CreateRoom(context.Background(), repository.NewRoomState{
		RoomCode:     roomCode,
		HostID:       hostID,
		HostNickname: "host",
		State:        domain.InitialCanvasState(),
		Background:   &domain.BackgroundDescriptor{URL: "http://a/bg/1.png", Title: "Default"},
		TTL:          time.Hour,
	})
	require.NoError(t, err)
}

func TestCreateRoom_WritesAllGroups(t *testing.T) {
	// Arrange
	repo, mr := newRepo(t, "")
	ctx := context.Background()

	// Act
	createRoom(t, repo)

	// Assert
	exists, err := repo.ExistsRoom(ctx, roomCode)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "active", mustGet(t, mr, roomCode))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL(roomCode).Seconds(), 1)

	host, err := repo.GetHost(ctx, roomCode)
	require.NoError(t, err)
	assert.Equal(t, hostID, host)

	nick, err := repo.GetNickname(ctx, roomCode, hostID)
	require.NoError(t, err)
	assert.Equal(t, "host", nick)

	state, err := repo.GetCanvasState(ctx, roomCode, hostID)
	require.NoError(t, err)
	assert.Equal(t, domain.InitialCanvasState(), *state)

	bg, err := repo.GetBackground(ctx, roomCode)
	require.NoError(t, err)
	require.NotNil(t, bg)
	assert.Equal(t, "Default", bg.Title)

	assert.True(t, mr.Exists("canvas:AB12CD:state"))
	assert.True(t, mr.Exists("AB12CD:nickname"))
}

func TestCreateRoom_LiveCodeIsDuplicate(t *testing.T) {
	repo, _ := newRepo(t, "")
	createRoom(t, repo)

	err := repo.CreateRoom(context.Background(), repository.NewRoomState{
		RoomCode: roomCode, HostID: guestID, HostNickname: "other", State: domain.InitialCanvasState(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)

	host, _ := repo.GetHost(context.Background(), roomCode)
	assert.Equal(t, hostID, host, "failed create must not touch the live room")
}

func TestCreateRoom_DropsLeftoversOfExpiredRoom(t *testing.T) {
	repo, mr := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)
	require.NoError(t, repo.JoinRoom(ctx, roomCode, guestID, "guest", domain.InitialCanvasState()))
	mr.Del(roomCode)

	createRoom(t, repo)

	ids, err := repo.ListParticipants(ctx, roomCode)
	require.NoError(t, err)
	assert.Equal(t, []string{hostID}, ids)
}

func TestJoinRoom(t *testing.T) {
	repo, _ := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)

	require.NoError(t, repo.JoinRoom(ctx, roomCode, guestID, "guest", domain.InitialCanvasState()))

	count, err := repo.CountParticipants(ctx, roomCode)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ids, err := repo.ListParticipants(ctx, roomCode)
	require.NoError(t, err)
	assert.Equal(t, []string{hostID, guestID}, ids)

	nicknames, err := repo.GetNicknames(ctx, roomCode)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{hostID: "host", guestID: "guest"}, nicknames)
}

func TestJoinRoom_MissingRoomCreatesNothing(t *testing.T) {
	repo, mr := newRepo(t, "")

	err := repo.JoinRoom(context.Background(), "ZZ99ZZ", guestID, "guest", domain.InitialCanvasState())

	assert.ErrorIs(t, err, repository.ErrRoomNotLive)
	assert.Empty(t, mr.Keys())
}

func TestLookupsDoNotCreateKeys(t *testing.T) {
	repo, mr := newRepo(t, "")
	ctx := context.Background()

	_, _ = repo.ExistsRoom(ctx, roomCode)
	_, _ = repo.GetHost(ctx, roomCode)
	_, _ = repo.IsHost(ctx, roomCode, hostID)
	_, _ = repo.GetNickname(ctx, roomCode, hostID)
	_, _ = repo.GetNicknames(ctx, roomCode)
	_, _ = repo.CountParticipants(ctx, roomCode)
	_, _ = repo.ListParticipants(ctx, roomCode)
	_, _ = repo.GetBackground(ctx, roomCode)
	_, _ = repo.GetFullState(ctx, roomCode)
	_, err := repo.GetCanvasState(ctx, roomCode, hostID)

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, mr.Keys())
}

func TestSaveCanvasState_NormalizesRotation(t *testing.T) {
	repo, _ := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)

	state := domain.CanvasState{X: 10, Y: 20, Scale: 1.5, Opacity: 0.5, Rotation: 370, IsMicOn: true}
	require.NoError(t, repo.SaveCanvasState(ctx, roomCode, hostID, state))

	got, err := repo.GetCanvasState(ctx, roomCode, hostID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Rotation)
	assert.Equal(t, 10, got.X)
	assert.True(t, got.IsMicOn)
}

func TestGuardedWrites_RefuseAfterExpiry(t *testing.T) {
	repo, mr := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)
	require.NoError(t, repo.DeleteRoom(ctx, roomCode))

	err := repo.SaveCanvasState(ctx, roomCode, hostID, domain.InitialCanvasState())
	assert.ErrorIs(t, err, repository.ErrRoomNotLive)

	err = repo.SaveBackground(ctx, roomCode, domain.BackgroundDescriptor{URL: "u", Title: "t"})
	assert.ErrorIs(t, err, repository.ErrRoomNotLive)

	_, err = repo.SwapHost(ctx, roomCode, hostID, guestID)
	assert.ErrorIs(t, err, repository.ErrRoomNotLive)

	assert.Empty(t, mr.Keys())
}

func TestSaveBackground(t *testing.T) {
	repo, mr := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)

	bg := domain.BackgroundDescriptor{URL: "http://a/backgrounds/AB12CD.png", Title: "AB12CDCustom"}
	require.NoError(t, repo.SaveBackground(ctx, roomCode, bg))

	got, err := repo.GetBackground(ctx, roomCode)
	require.NoError(t, err)
	assert.Equal(t, bg, *got)
	assert.Greater(t, mr.TTL("canvas:AB12CD:background"), time.Hour)
}

func TestSwapHost(t *testing.T) {
	repo, _ := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)
	require.NoError(t, repo.JoinRoom(ctx, roomCode, guestID, "guest", domain.InitialCanvasState()))

	swapped, err := repo.SwapHost(ctx, roomCode, guestID, hostID)
	require.NoError(t, err)
	assert.False(t, swapped, "only the current host can hand over")

	swapped, err = repo.SwapHost(ctx, roomCode, hostID, guestID)
	require.NoError(t, err)
	assert.True(t, swapped)

	full, err := repo.GetFullState(ctx, roomCode)
	require.NoError(t, err)
	hosts := 0
	for _, p := range full.Participants {
		if p.IsHost {
			hosts++
			assert.Equal(t, guestID, p.ClientID)
		}
	}
	assert.Equal(t, 1, hosts)

	isHost, err := repo.IsHost(ctx, roomCode, hostID)
	require.NoError(t, err)
	assert.False(t, isHost)
}

func TestGetFullState(t *testing.T) {
	repo, _ := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)
	require.NoError(t, repo.JoinRoom(ctx, roomCode, guestID, "guest", domain.InitialCanvasState()))

	full, err := repo.GetFullState(ctx, roomCode)
	require.NoError(t, err)

	assert.Equal(t, roomCode, full.RoomCode)
	require.NotNil(t, full.Background)
	require.Len(t, full.Participants, 2)
	assert.Equal(t, hostID, full.Participants[0].ClientID)
	assert.True(t, full.Participants[0].IsHost)
	assert.Equal(t, "host", full.Participants[0].Nickname)
	assert.Equal(t, guestID, full.Participants[1].ClientID)
	assert.False(t, full.Participants[1].IsHost)
	assert.Equal(t, 200, full.Participants[1].X)
}

func TestGetFullState_ReportsErrorBehindMissingHost(t *testing.T) {
	// Arrange
	repo, mr := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)
	mr.Del(roomCode + ":host")
	mr.Del("canvas:" + roomCode + ":background")
	mr.HSet("canvas:"+roomCode+":background", "url", "x")

	// Act
	full, err := repo.GetFullState(ctx, roomCode)

	// Assert
	require.Error(t, err)
	assert.NotErrorIs(t, err, redis.Nil)
	assert.Nil(t, full)
}

func TestGetFullState_MissingHostAndBackground(t *testing.T) {
	repo, mr := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)
	mr.Del(roomCode + ":host")
	mr.Del("canvas:" + roomCode + ":background")

	full, err := repo.GetFullState(ctx, roomCode)

	require.NoError(t, err)
	assert.Nil(t, full.Background)
	require.Len(t, full.Participants, 1)
	assert.False(t, full.Participants[0].IsHost)
}

func TestDeleteParticipant(t *testing.T) {
	repo, _ := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)
	require.NoError(t, repo.JoinRoom(ctx, roomCode, guestID, "guest", domain.InitialCanvasState()))

	require.NoError(t, repo.DeleteParticipant(ctx, roomCode, guestID))

	nick, err := repo.GetNickname(ctx, roomCode, guestID)
	require.NoError(t, err)
	assert.Empty(t, nick)
	count, _ := repo.CountParticipants(ctx, roomCode)
	assert.Equal(t, int64(1), count)
}

func TestSaveCanvasState_RefusesDepartedParticipant(t *testing.T) {
	// Arrange
	repo, _ := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)
	require.NoError(t, repo.JoinRoom(ctx, roomCode, guestID, "guest", domain.InitialCanvasState()))
	require.NoError(t, repo.DeleteParticipant(ctx, roomCode, guestID))

	// Act
	err := repo.SaveCanvasState(ctx, roomCode, guestID, domain.InitialCanvasState())

	// Assert
	assert.ErrorIs(t, err, repository.ErrNotParticipant)
	_, err = repo.GetCanvasState(ctx, roomCode, guestID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	count, err := repo.CountParticipants(ctx, roomCode)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	full, err := repo.GetFullState(ctx, roomCode)
	require.NoError(t, err)
	require.Len(t, full.Participants, 1)
	assert.Equal(t, hostID, full.Participants[0].ClientID)
}

func TestDeleteRoom_Idempotent(t *testing.T) {
	repo, mr := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)

	require.NoError(t, repo.DeleteRoom(ctx, roomCode))
	require.NoError(t, repo.DeleteRoom(ctx, roomCode))

	exists, err := repo.ExistsRoom(ctx, roomCode)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, mr.Keys())
}

func TestExistsRoom_FalseAfterNaturalExpiry(t *testing.T) {
	repo, mr := newRepo(t, "")
	ctx := context.Background()
	createRoom(t, repo)

	mr.FastForward(time.Hour + time.Second)

	exists, err := repo.ExistsRoom(ctx, roomCode)
	require.NoError(t, err)
	assert.False(t, exists)

	// Data keys linger until the lifecycle cleanup or their own grace expiry.
	mr.FastForward(10 * time.Minute)
	assert.Empty(t, mr.Keys())
}

func TestListLiveRoomCodes(t *testing.T) {
	repo, mr := newRepo(t, "clov:")
	ctx := context.Background()
	createRoom(t, repo)
	require.NoError(t, repo.CreateRoom(ctx, repository.NewRoomState{
		RoomCode: "Zz0099", HostID: guestID, HostNickname: "g", State: domain.InitialCanvasState(), TTL: time.Minute,
	}))
	require.NoError(t, mr.Set("clov:ratelimit:1.2.3.4", "1"))
	require.NoError(t, mr.Set("ABCDEF", "unprefixed"))

	codes, err := repo.ListLiveRoomCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{roomCode, "Zz0099"}, codes)

	mr.FastForward(2 * time.Minute)
	codes, err = repo.ListLiveRoomCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{roomCode}, codes)
}

func TestRoomCodeFromKey(t *testing.T) {
	repo, _ := newRepo(t, "clov:")

	code, ok := repo.RoomCodeFromKey("clov:AB12CD")
	assert.True(t, ok)
	assert.Equal(t, roomCode, code)

	for _, key := range []string{"AB12CD", "clov:AB12CD:host", "clov:canvas:AB12CD:state", "clov:AB12C"} {
		_, ok := repo.RoomCodeFromKey(key)
		assert.False(t, ok, key)
	}
}

func TestStoreUnreachable(t *testing.T) {
	repo, mr := newRepo(t, "")
	mr.Close()

	_, err := repo.ExistsRoom(context.Background(), roomCode)
	assert.Error(t, err)
	_, err = repo.ListLiveRoomCodes(context.Background())
	assert.Error(t, err)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
