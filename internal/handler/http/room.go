package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"clov-canvas/internal/middleware"
	"clov-canvas/internal/service"
)

// RoomHandler serves the room REST API.
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService}
}

// NicknameRequest is the body of create and join.
type NicknameRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}

// ChangeHostRequest is the body of a host transfer.
type ChangeHostRequest struct {
	NewHostID string `json:"newHostId" binding:"required"`
}

// CreateRoom handles POST /rooms.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req NicknameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Debug("Handler.CreateRoom: invalid body")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: nickname is required")
		return
	}

	session, err := h.roomService.CreateRoom(c.Request.Context(), req.Nickname)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, session)
}

// JoinRoom handles POST /rooms/:roomCode/participants.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req NicknameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: nickname is required")
		return
	}

	session, err := h.roomService.JoinRoom(c.Request.Context(), c.Param("roomCode"), req.Nickname)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, session)
}

// GetRoom handles GET /rooms/:roomCode.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	status, err := h.roomService.GetRoomStatus(c.Request.Context(), c.Param("roomCode"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, status)
}

// ListBackgrounds handles GET /backgrounds.
func (h *RoomHandler) ListBackgrounds(c *gin.Context) {
	backgrounds, err := h.roomService.ListBackgrounds(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"backgrounds": backgrounds})
}

// ListParticipants handles GET /rooms/:roomCode/participants.
func (h *RoomHandler) ListParticipants(c *gin.Context) {
	list, err := h.roomService.ListParticipants(c.Request.Context(), c.Param("roomCode"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"participants": list})
}

// LeaveRoom handles DELETE /rooms/:roomCode/participants/:clientId. A token
// only allows removing its own participant.
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	roomCode, clientID, ok := h.authorize(c)
	if !ok {
		return
	}
	if c.Param("clientId") != clientID {
		ErrorResponse(c, http.StatusForbidden, "Cannot remove another participant")
		return
	}

	if err := h.roomService.LeaveRoom(c.Request.Context(), roomCode, clientID); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangeHost handles PATCH /rooms/:roomCode/host.
func (h *RoomHandler) ChangeHost(c *gin.Context) {
	roomCode, clientID, ok := h.authorize(c)
	if !ok {
		return
	}
	var req ChangeHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: newHostId is required")
		return
	}

	if err := h.roomService.ChangeHost(c.Request.Context(), roomCode, clientID, req.NewHostID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"roomCode": roomCode, "hostId": req.NewHostID})
}

// authorize checks that the token belongs to the room in the path.
func (h *RoomHandler) authorize(c *gin.Context) (roomCode, clientID string, ok bool) {
	roomCode, clientID, ok = middleware.Identity(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Room token is required")
		return "", "", false
	}
	if c.Param("roomCode") != roomCode {
		ErrorResponse(c, http.StatusForbidden, "Token does not belong to this room")
		return "", "", false
	}
	return roomCode, clientID, true
}
