package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

// RoomCodeLength is the fixed length of a room code.
const RoomCodeLength = 6

// roomCodeAlphabet omits V and v.
const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUWXYZabcdefghijklmnopqrstuwxyz0123456789"

var roomCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

// IsRoomCode reports whether s has the shape of a room code.
func IsRoomCode(s string) bool {
	return roomCodePattern.MatchString(s)
}

// GenerateRoomCode returns a random room code. Uniqueness is enforced by the
// record store's unique index, callers retry on collision.
func GenerateRoomCode() (string, error) {
	b := make([]byte, RoomCodeLength)
	max := big.NewInt(int64(len(roomCodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		b[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}
