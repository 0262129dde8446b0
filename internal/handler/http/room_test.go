package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clov-canvas/internal/domain"
	roomhttp "clov-canvas/internal/handler/http"
	"clov-canvas/internal/hub"
	redisstate "clov-canvas/internal/infra/state/redis"
	"clov-canvas/internal/middleware"
	"clov-canvas/internal/relay"
	"clov-canvas/internal/repository"
	"clov-canvas/internal/repository/mocks"
	"clov-canvas/internal/service"
)

const (
	roomCode = "AB12CD"
	hostID   = "11111111-1111-1111-1111-111111111111"
	guestID  = "22222222-2222-2222-2222-222222222222"
)

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, e relay.Event) error { return nil }

type apiFixture struct {
	router       *gin.Engine
	tokens       *service.TokenService
	state        repository.StateRepository
	rooms        *mocks.RoomRepository
	participants *mocks.ParticipantRepository
	backgrounds  *mocks.BackgroundRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	state := redisstate.NewRedisStateRepository(client, "")

	rooms := mocks.NewRoomRepository(t)
	participants := mocks.NewParticipantRepository(t)
	backgrounds := mocks.NewBackgroundRepository(t)
	tokens, err := service.NewTokenService("api-secret", 1)
	require.NoError(t, err)
	lifecycle := service.NewLifecycleService(rooms, participants, state, hub.NewHub(), nopPublisher{}, nil)
	svc := service.NewRoomService(rooms, participants, backgrounds, state, nopPublisher{}, lifecycle, tokens, service.RoomServiceConfig{
		RoomTTL:         time.Hour,
		MaxParticipants: 10,
		AssetBaseURL:    "http://cdn.test/",
	})
	h := roomhttp.NewRoomHandler(svc)

	router := gin.New()
	router.GET("/api/v1/backgrounds", h.ListBackgrounds)
	api := router.Group("/api/v1/rooms")
	api.POST("", h.CreateRoom)
	api.GET("/:roomCode", h.GetRoom)
	api.POST("/:roomCode/participants", h.JoinRoom)
	api.GET("/:roomCode/participants", h.ListParticipants)
	authed := api.Group("", middleware.RoomAuth(tokens))
	authed.DELETE("/:roomCode/participants/:clientId", h.LeaveRoom)
	authed.PATCH("/:roomCode/host", h.ChangeHost)

	return &apiFixture{router: router, tokens: tokens, state: state, rooms: rooms, participants: participants, backgrounds: backgrounds}
}

func (f *apiFixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.state.CreateRoom(ctx, repository.NewRoomState{
		RoomCode: roomCode, HostID: hostID, HostNickname: "host",
		State: domain.InitialCanvasState(), TTL: time.Hour,
	}))
	require.NoError(t, f.state.JoinRoom(ctx, roomCode, guestID, "guest", domain.InitialCanvasState()))
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) token(t *testing.T, clientID string) string {
	t.Helper()
	tok, err := f.tokens.IssueRoomToken(roomCode, clientID)
	require.NoError(t, err)
	return tok
}

func TestCreateRoom(t *testing.T) {
	// Arrange
	f := newAPIFixture(t)
	f.backgrounds.On("FindDefault", mock.Anything).Return(nil, repository.ErrBackgroundNotFound).Once()
	f.rooms.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.participants.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	// Act
	w := f.do(t, http.MethodPost, "/api/v1/rooms", "", gin.H{"nickname": "alice"})

	// Assert
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session service.RoomSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.True(t, session.IsHost)
	assert.True(t, domain.IsRoomCode(session.RoomCode))
	assert.NotEmpty(t, session.Token)
}

func TestCreateRoom_BadInput(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/rooms", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/rooms", "", gin.H{"nickname": "this nickname is far too long"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinRoom_NotLive(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/rooms/"+roomCode+"/participants", "", gin.H{"nickname": "bob"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRoomAndParticipants(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/rooms/"+roomCode, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.seed(t)
	w = f.do(t, http.MethodGet, "/api/v1/rooms/"+roomCode, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"roomCode":"AB12CD","live":true,"participantCount":2}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/v1/rooms/"+roomCode+"/participants", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Participants []service.ParticipantInfo `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Participants, 2)
}

func TestLeaveRoom_Authorization(t *testing.T) {
	f := newAPIFixture(t)
	f.seed(t)
	path := "/api/v1/rooms/" + roomCode + "/participants/" + guestID

	t.Run("no token", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("other participant", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, path, f.token(t, hostID), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("other room", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/v1/rooms/ZZ99ZZ/participants/"+guestID, f.token(t, guestID), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("self", func(t *testing.T) {
		f.participants.On("MarkLeft", mock.Anything, guestID, mock.Anything).Return(nil).Once()

		w := f.do(t, http.MethodDelete, path, f.token(t, guestID), nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		count, err := f.state.CountParticipants(context.Background(), roomCode)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func TestChangeHost(t *testing.T) {
	f := newAPIFixture(t)
	f.seed(t)
	path := "/api/v1/rooms/" + roomCode + "/host"

	w := f.do(t, http.MethodPatch, path, f.token(t, guestID), gin.H{"newHostId": hostID})
	assert.Equal(t, http.StatusForbidden, w.Code, "only the host may transfer")

	w = f.do(t, http.MethodPatch, path, f.token(t, hostID), gin.H{"newHostId": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.participants.On("TransferHost", mock.Anything, roomCode, hostID, guestID).Return(nil).Once()
	w = f.do(t, http.MethodPatch, path, f.token(t, hostID), gin.H{"newHostId": guestID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	host, err := f.state.GetHost(context.Background(), roomCode)
	require.NoError(t, err)
	assert.Equal(t, guestID, host)
}

func TestListBackgrounds(t *testing.T) {
	// Arrange
	f := newAPIFixture(t)
	f.backgrounds.On("List", mock.Anything).Return([]domain.Background{
		{ID: 1, Title: "Default", URL: "backgrounds/1.png"},
		{ID: 2, Title: "Beach", URL: "https://img.test/beach.png"},
	}, nil).Once()

	// Act
	w := f.do(t, http.MethodGet, "/api/v1/backgrounds", "", nil)

	// Assert
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Backgrounds []service.BackgroundInfo `json:"backgrounds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []service.BackgroundInfo{
		{BackgroundID: 1, BackgroundTitle: "Default", BackgroundURL: "http://cdn.test/backgrounds/1.png"},
		{BackgroundID: 2, BackgroundTitle: "Beach", BackgroundURL: "https://img.test/beach.png"},
	}, body.Backgrounds)
}

func TestListBackgrounds_StoreFailure(t *testing.T) {
	f := newAPIFixture(t)
	f.backgrounds.On("List", mock.Anything).Return(nil, errors.New("db down")).Once()

	w := f.do(t, http.MethodGet, "/api/v1/backgrounds", "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
