package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"clov-canvas/internal/repository"
	"clov-canvas/internal/tasks"
)

// ArchiveHandler processes room:archive tasks.
type ArchiveHandler struct {
	participantRepo repository.ParticipantRepository
}

// NewArchiveHandler creates an ArchiveHandler.
func NewArchiveHandler(participantRepo repository.ParticipantRepository) *ArchiveHandler {
	if participantRepo == nil {
		panic("ParticipantRepository cannot be nil for ArchiveHandler")
	}
	return &ArchiveHandler{participantRepo: participantRepo}
}

// ProcessTask implements asynq.Handler.
func (h *ArchiveHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})

	var payload tasks.RoomArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	logCtx = logCtx.WithField("room_code", payload.RoomCode)

	states := make(map[string]string, len(payload.States))
	for clientID, state := range payload.States {
		raw, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to encode state of %s: %v: %w", clientID, err, asynq.SkipRetry)
		}
		states[clientID] = string(raw)
	}

	if err := h.participantRepo.SaveLastStates(ctx, states); err != nil {
		logCtx.WithError(err).Error("Failed to save final canvas states")
		return fmt.Errorf("failed to archive room %s: %w", payload.RoomCode, err)
	}

	logCtx.WithField("participants", len(states)).Info("Room archived")
	return nil
}
