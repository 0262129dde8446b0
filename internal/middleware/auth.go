package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"clov-canvas/internal/service"
)

// Context keys set by RoomAuth.
const (
	ContextRoomCode = "room_code"
	ContextClientID = "client_id"
)

// ErrMissingToken means neither the Authorization header nor the token query
// parameter carried a token.
var ErrMissingToken = errors.New("missing room token")

var errMalformedHeader = errors.New("malformed Authorization header")

// RoomAuth validates the room session token and stores the room code and
// client id in the gin context. Browsers cannot set headers on websocket
// upgrades, so the token may also come from the "token" query parameter.
func RoomAuth(tokens *service.TokenService) gin.HandlerFunc {
	if tokens == nil {
		panic("TokenService cannot be nil for RoomAuth middleware")
	}

	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			logrus.WithError(err).Debug("RoomAuth: no usable token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Room token is required"})
			c.Abort()
			return
		}

		claims, err := tokens.ParseRoomToken(tokenStr)
		if err != nil {
			logrus.WithError(err).Warn("RoomAuth: invalid token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextRoomCode, claims.RoomCode)
		c.Set(ContextClientID, claims.ClientID())
		c.Next()
	}
}

// Identity returns the room code and client id set by RoomAuth.
func Identity(c *gin.Context) (roomCode, clientID string, ok bool) {
	roomCode = c.GetString(ContextRoomCode)
	clientID = c.GetString(ContextClientID)
	return roomCode, clientID, roomCode != "" && clientID != ""
}

func extractToken(c *gin.Context) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", errMalformedHeader
		}
		return parts[1], nil
	}
	if token := c.Query("token"); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}
