package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"

	"clov-canvas/internal/domain"
)

// RoomClaims identify one participant of one room.
type RoomClaims struct {
	RoomCode string `json:"room_code"`
	jwt.RegisteredClaims
}

// ClientID returns the participant the token was issued to.
func (c *RoomClaims) ClientID() string {
	return c.Subject
}

// TokenService issues and validates room tokens. A room token is handed out
// on create/join and authorizes the websocket and the participant endpoints.
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. It fails on an empty secret.
func NewTokenService(secret string, expiryHours int) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty for TokenService")
	}
	if expiryHours <= 0 {
		expiryHours = 4
	}
	return &TokenService{
		secret: []byte(secret),
		expiry: time.Duration(expiryHours) * time.Hour,
		now:    time.Now,
	}, nil
}

// IssueRoomToken signs a token for clientID in roomCode.
func (s *TokenService) IssueRoomToken(roomCode, clientID string) (string, error) {
	now := s.now()
	claims := RoomClaims{
		RoomCode: roomCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign room token: %w", err)
	}
	return token, nil
}

// ParseRoomToken validates signature, expiry and claim shape.
func (s *TokenService) ParseRoomToken(tokenStr string) (*RoomClaims, error) {
	claims := &RoomClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			logrus.Debug("Room token expired")
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || !domain.IsRoomCode(claims.RoomCode) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
