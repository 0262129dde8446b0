package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"clov-canvas/internal/domain"
	"clov-canvas/internal/relay"
	"clov-canvas/internal/repository"
)

// LifecycleService closes rooms, either because their liveness key expired
// or because the host left.
type LifecycleService struct {
	roomRepo        repository.RoomRepository
	participantRepo repository.ParticipantRepository
	stateRepo       repository.StateRepository
	notifier        Notifier
	publisher       EventPublisher
	archiver        Archiver
	now             func() time.Time
}

var _ relay.ExpirationHandler = (*LifecycleService)(nil)

// NewLifecycleService creates a LifecycleService. archiver may be nil, in
// which case final states are not archived.
func NewLifecycleService(
	roomRepo repository.RoomRepository,
	participantRepo repository.ParticipantRepository,
	stateRepo repository.StateRepository,
	notifier Notifier,
	publisher EventPublisher,
	archiver Archiver,
) *LifecycleService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for LifecycleService")
	}
	if participantRepo == nil {
		panic("ParticipantRepository cannot be nil for LifecycleService")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for LifecycleService")
	}
	if notifier == nil {
		panic("Notifier cannot be nil for LifecycleService")
	}
	if publisher == nil {
		panic("EventPublisher cannot be nil for LifecycleService")
	}
	return &LifecycleService{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		stateRepo:       stateRepo,
		notifier:        notifier,
		publisher:       publisher,
		archiver:        archiver,
		now:             time.Now,
	}
}

// HandleExpiredKey reacts to an expiration notification. Keys that are not
// room liveness keys are ignored.
func (s *LifecycleService) HandleExpiredKey(ctx context.Context, key string) {
	roomCode, ok := s.stateRepo.RoomCodeFromKey(key)
	if !ok {
		return
	}
	if err := s.ExpireRoom(ctx, roomCode); err != nil {
		logrus.WithError(err).WithField("room_code", roomCode).Error("Room expiry completed with errors")
	}
}

// ExpireRoom closes a room whose liveness key expired. Every process that
// receives the notification runs it; each step tolerates having already been
// done by another process. Sessions on this process get room-expired.
func (s *LifecycleService) ExpireRoom(ctx context.Context, roomCode string) error {
	logrus.WithField("room_code", roomCode).Info("Room expired")
	return s.closeRoom(ctx, roomCode, func() error {
		_, err := s.notifier.BroadcastEvent(roomCode, domain.EventRoomExpired, roomExpiredData{RoomCode: roomCode})
		return err
	})
}

// CloseRoomByHost closes a room because its host left. The departure is
// published to every process before the room state is wiped.
func (s *LifecycleService) CloseRoomByHost(ctx context.Context, roomCode, hostID, nickname string) error {
	logrus.WithFields(logrus.Fields{"room_code": roomCode, "client_id": hostID}).Info("Host left, closing room")
	isHost := true
	return s.closeRoom(ctx, roomCode, func() error {
		return s.publisher.Publish(ctx, relay.LeaveRoom{
			RoomCode: roomCode,
			ClientID: hostID,
			Nickname: &nickname,
			IsHost:   &isHost,
		})
	})
}

// closeRoom runs every closure step even if an earlier one failed. The
// state wipe always runs last.
func (s *LifecycleService) closeRoom(ctx context.Context, roomCode string, notify func() error) error {
	logCtx := logrus.WithField("room_code", roomCode)
	now := s.now()
	var errs []error

	if err := s.roomRepo.MarkClosed(ctx, roomCode, now); err != nil {
		logCtx.WithError(err).Error("Failed to mark room closed")
		errs = append(errs, fmt.Errorf("mark closed: %w", err))
	}

	if n, err := s.participantRepo.MarkAllLeft(ctx, roomCode, now); err != nil {
		logCtx.WithError(err).Error("Failed to stamp participants as left")
		errs = append(errs, fmt.Errorf("mark all left: %w", err))
	} else {
		logCtx.WithField("participants", n).Debug("Stamped remaining participants as left")
	}

	if err := notify(); err != nil {
		logCtx.WithError(err).Error("Failed to notify room closure")
		errs = append(errs, fmt.Errorf("notify: %w", err))
	}

	if err := s.archive(ctx, roomCode); err != nil {
		logCtx.WithError(err).Warn("Failed to archive final canvas states")
		errs = append(errs, fmt.Errorf("archive: %w", err))
	}

	if err := s.stateRepo.DeleteRoom(ctx, roomCode); err != nil {
		logCtx.WithError(err).Error("Failed to delete room state")
		errs = append(errs, fmt.Errorf("delete state: %w", err))
	}

	return errors.Join(errs...)
}

func (s *LifecycleService) archive(ctx context.Context, roomCode string) error {
	if s.archiver == nil {
		return nil
	}
	full, err := s.stateRepo.GetFullState(ctx, roomCode)
	if err != nil {
		return err
	}
	if len(full.Participants) == 0 {
		return nil
	}
	states := make(map[string]domain.CanvasState, len(full.Participants))
	for _, p := range full.Participants {
		states[p.ClientID] = p.State()
	}
	return s.archiver.EnqueueArchive(ctx, roomCode, states)
}
