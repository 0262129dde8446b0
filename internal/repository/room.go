package repository

import (
	"context"
	"time"

	"clov-canvas/internal/domain"
)

// RoomRepository persists room records.
type RoomRepository interface {
	// Create inserts a new room. A room code collision returns ErrDuplicateEntry.
	Create(ctx context.Context, room *domain.Room) error

	// FindByCode returns ErrRoomNotFound when no record exists.
	FindByCode(ctx context.Context, roomCode string) (*domain.Room, error)

	// MarkClosed sets status CLOSED and closed_at. Rooms that are already
	// closed are left untouched, so the call is safe to repeat.
	MarkClosed(ctx context.Context, roomCode string, closedAt time.Time) error
}
