package repository

import "errors"

// Generic storage errors.
var (
	// ErrNotFound means the requested record or key does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry means a unique constraint was violated.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrRoomNotLive means the room's liveness key is absent, so the write
	// was refused instead of recreating orphan keys.
	ErrRoomNotLive = errors.New("repository: room is not live")
	// ErrNotParticipant means the client is not (or no longer) a member of
	// the room, so a per-client write was refused.
	ErrNotParticipant = errors.New("repository: client is not a participant of the room")
)

// Resource specific aliases.
var (
	ErrRoomNotFound        = ErrNotFound
	ErrParticipantNotFound = ErrNotFound
	ErrBackgroundNotFound  = ErrNotFound
)
