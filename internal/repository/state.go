package repository

import (
	"context"
	"time"

	"clov-canvas/internal/domain"
)

// NewRoomState is everything written by the batched room creation.
type NewRoomState struct {
	RoomCode     string
	HostID       string
	HostNickname string
	State        domain.CanvasState
	Background   *domain.BackgroundDescriptor
	TTL          time.Duration
}

// StateRepository is the live, shared room state (Redis). Lookups never
// create keys. Writes to an existing room fail with ErrRoomNotLive once the
// liveness key is gone.
type StateRepository interface {
	// === Lifecycle ===

	// CreateRoom writes host, nickname, initial state, background and the
	// liveness key in one transaction. ErrDuplicateEntry if the code is live.
	CreateRoom(ctx context.Context, room NewRoomState) error

	// JoinRoom writes nickname and initial state for a new participant.
	JoinRoom(ctx context.Context, roomCode, clientID, nickname string, state domain.CanvasState) error

	// ExistsRoom checks the liveness key only.
	ExistsRoom(ctx context.Context, roomCode string) (bool, error)

	// DeleteRoom removes every key of the room. Idempotent.
	DeleteRoom(ctx context.Context, roomCode string) error

	// DeleteParticipant removes the client's state and nickname entries.
	DeleteParticipant(ctx context.Context, roomCode, clientID string) error

	// ListLiveRoomCodes enumerates rooms whose liveness key exists using an
	// incremental SCAN.
	ListLiveRoomCodes(ctx context.Context) ([]string, error)

	// RoomCodeFromKey extracts the room code from a liveness key name.
	RoomCodeFromKey(key string) (string, bool)

	// === Participants ===

	CountParticipants(ctx context.Context, roomCode string) (int64, error)
	ListParticipants(ctx context.Context, roomCode string) ([]string, error)

	// GetNickname returns "" when the nickname is missing.
	GetNickname(ctx context.Context, roomCode, clientID string) (string, error)
	GetNicknames(ctx context.Context, roomCode string) (map[string]string, error)

	// === Host ===

	// GetHost returns "" when no host marker exists.
	GetHost(ctx context.Context, roomCode string) (string, error)
	IsHost(ctx context.Context, roomCode, clientID string) (bool, error)

	// SwapHost replaces the host marker with toClientID only if it currently
	// holds fromClientID. It reports whether the swap happened.
	SwapHost(ctx context.Context, roomCode, fromClientID, toClientID string) (bool, error)

	// === Canvas ===

	// GetCanvasState returns ErrNotFound when the client has no state.
	GetCanvasState(ctx context.Context, roomCode, clientID string) (*domain.CanvasState, error)
	// SaveCanvasState returns ErrNotParticipant when the client has no
	// nickname entry in the room.
	SaveCanvasState(ctx context.Context, roomCode, clientID string, state domain.CanvasState) error

	// GetBackground returns nil when the room has no background.
	GetBackground(ctx context.Context, roomCode string) (*domain.BackgroundDescriptor, error)
	SaveBackground(ctx context.Context, roomCode string, bg domain.BackgroundDescriptor) error

	// GetFullState assembles background and all participants with nickname
	// and host flag, sorted by clientId.
	GetFullState(ctx context.Context, roomCode string) (*domain.FullCanvasState, error)
}
