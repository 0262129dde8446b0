package service

import (
	"context"

	"clov-canvas/internal/domain"
	"clov-canvas/internal/relay"
)

// Notifier delivers frames to sessions connected to this process.
// *hub.Hub implements it.
type Notifier interface {
	BroadcastEvent(roomCode, event string, data interface{}) (int, error)
	SendToClient(clientID string, message []byte) error
	SendEventToClient(clientID, event string, data interface{}) error
	HasLocalSubscribers(roomCode string) bool
	IsLocalClient(clientID string) bool
	// Disconnect closes the client's session on this process, if any.
	Disconnect(clientID string)
}

// EventPublisher fans an event out to every process. *relay.Publisher
// implements it.
type EventPublisher interface {
	Publish(ctx context.Context, e relay.Event) error
}

// Archiver schedules persistence of the final canvas states of a closed room.
type Archiver interface {
	EnqueueArchive(ctx context.Context, roomCode string, states map[string]domain.CanvasState) error
}
