package service

import (
	"errors"

	"clov-canvas/internal/repository"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrParticipantNotFound = errors.New("participant not found in room")
	ErrNotHost             = errors.New("only the current host can do this")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidToken        = errors.New("invalid or expired room token")
	ErrInternalServer      = errors.New("internal server error")
)

// mapRepoError converts repository errors into service errors. Unknown
// errors become ErrInternalServer.
func mapRepoError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrRoomNotLive):
		return notFound
	default:
		return ErrInternalServer
	}
}
