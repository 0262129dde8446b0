package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"clov-canvas/internal/domain"
	"clov-canvas/internal/hub"
	"clov-canvas/internal/middleware"
	"clov-canvas/internal/relay"
	"clov-canvas/internal/service"
)

const frameTimeout = 5 * time.Second

// RoomSessions is the part of RoomService used by the websocket endpoint.
type RoomSessions interface {
	IsRoomLive(ctx context.Context, roomCode string) (bool, error)
	ChangeHost(ctx context.Context, roomCode, fromID, toID string) error
	LeaveRoom(ctx context.Context, roomCode, clientID string) error
}

var _ RoomSessions = (*service.RoomService)(nil)

// Options toggles optional frame routing behavior.
type Options struct {
	SignalRelayFallback bool
	LeaveOnDisconnect   bool
	AllowedOrigin       string
}

// WebSocketHandler upgrades authenticated requests and routes inbound frames.
type WebSocketHandler struct {
	upgrader  websocket.Upgrader
	hub       *hub.Hub
	rooms     RoomSessions
	publisher service.EventPublisher
	opts      Options
}

var _ hub.FrameHandler = (*WebSocketHandler)(nil)

// NewWebSocketHandler creates a WebSocketHandler.
func NewWebSocketHandler(h *hub.Hub, rooms RoomSessions, publisher service.EventPublisher, opts Options) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if rooms == nil {
		panic("RoomSessions cannot be nil for WebSocketHandler")
	}
	if publisher == nil {
		panic("EventPublisher cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || opts.AllowedOrigin == "*" || origin == opts.AllowedOrigin
		},
	}

	return &WebSocketHandler{
		upgrader:  upgrader,
		hub:       h,
		rooms:     rooms,
		publisher: publisher,
		opts:      opts,
	}
}

// HandleConnection serves GET /ws. RoomAuth must run first.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	roomCode, clientID, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Room token is required"})
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_code": roomCode, "client_id": clientID})

	live, err := h.rooms.IsRoomLive(c.Request.Context(), roomCode)
	if err != nil {
		logCtx.WithError(err).Error("WS Handler: failed to check room liveness")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !live {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found or expired"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		logCtx.WithError(err).Warn("WS Handler: upgrade failed")
		return
	}

	client := hub.NewClient(h.hub, conn, roomCode, clientID, h)
	client.Run()
	logCtx.Info("WS Handler: client connected")
}

// HandleFrame routes one inbound frame.
func (h *WebSocketHandler) HandleFrame(c *hub.Client, message []byte) {
	logCtx := logrus.WithFields(logrus.Fields{"room_code": c.RoomCode(), "client_id": c.ClientID()})

	var env domain.Envelope
	if err := json.Unmarshal(message, &env); err != nil || env.Event == "" {
		logCtx.WithError(err).Debug("WS Handler: dropping malformed frame")
		return
	}
	logCtx = logCtx.WithField("event", env.Event)

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	switch {
	case domain.IsSignalingEvent(env.Event):
		h.forwardSignal(ctx, c, env, message, logCtx)

	case env.Event == domain.EventAssignHost:
		var data struct {
			To string `json:"to"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil || data.To == "" {
			logCtx.Debug("WS Handler: assign-host without target")
			return
		}
		if err := h.rooms.ChangeHost(ctx, c.RoomCode(), c.ClientID(), data.To); err != nil {
			logCtx.WithError(err).Warn("WS Handler: host transfer refused")
		}

	case env.Event == domain.EventLeaveRoom:
		if err := h.rooms.LeaveRoom(ctx, c.RoomCode(), c.ClientID()); err != nil {
			logCtx.WithError(err).Warn("WS Handler: leave failed")
			return
		}
		c.Close()

	case env.Event == domain.EventSignal:
		// Relay-internal; clients send the concrete signaling events.
		logCtx.Debug("WS Handler: dropping client signal envelope")

	default:
		data, err := withIdentity(env.Data, c.RoomCode(), c.ClientID())
		if err != nil {
			logCtx.WithError(err).Debug("WS Handler: dropping frame with non-object data")
			return
		}
		event, err := relay.DecodeEnvelope(domain.Envelope{Event: env.Event, Data: data})
		if err != nil {
			logCtx.WithError(err).Debug("WS Handler: dropping frame")
			return
		}
		if err := h.publisher.Publish(ctx, event); err != nil {
			logCtx.WithError(err).Error("WS Handler: publish failed")
		}
	}
}

// forwardSignal delivers a signaling frame to its target unchanged.
func (h *WebSocketHandler) forwardSignal(ctx context.Context, c *hub.Client, env domain.Envelope, raw []byte, logCtx *logrus.Entry) {
	var data struct {
		Target string `json:"target"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Target == "" {
		logCtx.Debug("WS Handler: signaling frame without target")
		return
	}

	err := h.hub.SendToClient(data.Target, raw)
	switch {
	case err == nil:
		return
	case errors.Is(err, hub.ErrClientNotLocal) && h.opts.SignalRelayFallback:
		signal := relay.Signal{RoomCode: c.RoomCode(), Target: data.Target, Frame: raw}
		if err := h.publisher.Publish(ctx, signal); err != nil {
			logCtx.WithError(err).Error("WS Handler: signal relay failed")
		}
	default:
		logCtx.WithError(err).WithField("target", data.Target).Debug("WS Handler: signaling target unreachable")
	}
}

// HandleClose runs after the client has been removed from the hub.
func (h *WebSocketHandler) HandleClose(c *hub.Client) {
	if !h.opts.LeaveOnDisconnect {
		return
	}
	// A reconnect replaced this session; the participant is still here.
	if h.hub.IsLocalClient(c.ClientID()) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()
	if err := h.rooms.LeaveRoom(ctx, c.RoomCode(), c.ClientID()); err != nil {
		logrus.WithFields(logrus.Fields{"room_code": c.RoomCode(), "client_id": c.ClientID()}).
			WithError(err).Warn("WS Handler: leave on disconnect failed")
	}
}

// withIdentity overwrites roomCode and clientId in a frame's data object.
func withIdentity(data json.RawMessage, roomCode, clientID string) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, err
		}
	}
	rc, _ := json.Marshal(roomCode)
	cid, _ := json.Marshal(clientID)
	fields["roomCode"] = rc
	fields["clientId"] = cid
	return json.Marshal(fields)
}
