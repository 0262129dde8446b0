package repository

import (
	"context"
	"time"

	"clov-canvas/internal/domain"
)

// ParticipantRepository persists participant records.
type ParticipantRepository interface {
	Create(ctx context.Context, participant *domain.Participant) error

	// FindByClientID returns ErrParticipantNotFound when no record exists.
	FindByClientID(ctx context.Context, clientID string) (*domain.Participant, error)

	ListByRoomCode(ctx context.Context, roomCode string) ([]domain.Participant, error)

	// MarkLeft stamps left_at for one participant if it is still unset.
	MarkLeft(ctx context.Context, clientID string, leftAt time.Time) error

	// MarkAllLeft stamps left_at for every participant of the room that is
	// still unset and returns the number of rows changed.
	MarkAllLeft(ctx context.Context, roomCode string, leftAt time.Time) (int64, error)

	// TransferHost clears is_host on fromClientID and sets it on toClientID
	// in one transaction.
	TransferHost(ctx context.Context, roomCode, fromClientID, toClientID string) error

	// SaveLastStates writes the archived canvas state JSON per client.
	SaveLastStates(ctx context.Context, states map[string]string) error
}
