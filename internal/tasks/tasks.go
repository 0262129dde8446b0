package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"clov-canvas/internal/domain"
)

const (
	// TypeRoomArchive persists the final canvas states of a closed room.
	TypeRoomArchive = "room:archive"

	archiveQueue    = "low"
	archiveMaxRetry = 5
)

// RoomArchivePayload is the payload of a room:archive task.
type RoomArchivePayload struct {
	RoomCode string                        `json:"roomCode"`
	States   map[string]domain.CanvasState `json:"states"`
	ClosedAt time.Time                     `json:"closedAt"`
}

// ArchiveTaskID deduplicates archive tasks for the same room across
// processes.
func ArchiveTaskID(roomCode string) string {
	return "archive:" + roomCode
}

// NewRoomArchiveTask builds the archive task for roomCode.
func NewRoomArchiveTask(payload RoomArchivePayload) (*asynq.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal room archive payload: %w", err)
	}
	return asynq.NewTask(TypeRoomArchive, raw,
		asynq.TaskID(ArchiveTaskID(payload.RoomCode)),
		asynq.Queue(archiveQueue),
		asynq.MaxRetry(archiveMaxRetry),
	), nil
}

// taskEnqueuer is the subset of *asynq.Client used here.
type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ArchiveEnqueuer schedules room:archive tasks.
type ArchiveEnqueuer struct {
	client taskEnqueuer
	now    func() time.Time
}

// NewArchiveEnqueuer wraps an asynq client.
func NewArchiveEnqueuer(client *asynq.Client) *ArchiveEnqueuer {
	if client == nil {
		panic("asynq client cannot be nil for ArchiveEnqueuer")
	}
	return &ArchiveEnqueuer{client: client, now: time.Now}
}

// EnqueueArchive enqueues the archive task. Another process having already
// enqueued it for the same room is not an error.
func (e *ArchiveEnqueuer) EnqueueArchive(ctx context.Context, roomCode string, states map[string]domain.CanvasState) error {
	task, err := NewRoomArchiveTask(RoomArchivePayload{RoomCode: roomCode, States: states, ClosedAt: e.now()})
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue room archive for %s: %w", roomCode, err)
	}
	return nil
}
