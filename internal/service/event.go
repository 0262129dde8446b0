package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"clov-canvas/internal/domain"
	"clov-canvas/internal/hub"
	"clov-canvas/internal/relay"
	"clov-canvas/internal/repository"
)

// EventService applies relay events on this process: it updates the State
// Store where an event carries a write and pushes the resulting frames to
// local sessions. Every process receives every event, so writes here are
// idempotent overwrites.
type EventService struct {
	stateRepo      repository.StateRepository
	backgroundRepo repository.BackgroundRepository
	notifier       Notifier
	assetBaseURL   string
	now            func() time.Time
}

var _ relay.Handler = (*EventService)(nil)

// NewEventService creates an EventService.
func NewEventService(stateRepo repository.StateRepository, backgroundRepo repository.BackgroundRepository, notifier Notifier, assetBaseURL string) *EventService {
	if stateRepo == nil {
		panic("StateRepository cannot be nil for EventService")
	}
	if backgroundRepo == nil {
		panic("BackgroundRepository cannot be nil for EventService")
	}
	if notifier == nil {
		panic("Notifier cannot be nil for EventService")
	}
	return &EventService{
		stateRepo:      stateRepo,
		backgroundRepo: backgroundRepo,
		notifier:       notifier,
		assetBaseURL:   assetBaseURL,
		now:            time.Now,
	}
}

// OnJoinRoom broadcasts user-joined and sends the joiner a canvas-sync
// snapshot when it is connected here.
func (s *EventService) OnJoinRoom(ctx context.Context, e relay.JoinRoom) error {
	nickname, err := s.stateRepo.GetNickname(ctx, e.RoomCode, e.ClientID)
	if err != nil {
		return err
	}
	participants, err := s.stateRepo.GetNicknames(ctx, e.RoomCode)
	if err != nil {
		return err
	}
	if participants == nil {
		participants = map[string]string{}
	}

	if _, err := s.notifier.BroadcastEvent(e.RoomCode, domain.EventUserJoined, userJoinedData{
		RoomCode:     e.RoomCode,
		NewComer:     participantRef{ClientID: e.ClientID, Nickname: nickname},
		Participants: participants,
	}); err != nil {
		return err
	}

	if !s.notifier.IsLocalClient(e.ClientID) {
		return nil
	}
	full, err := s.stateRepo.GetFullState(ctx, e.RoomCode)
	if err != nil {
		return err
	}
	if len(full.Participants) == 0 {
		return nil
	}
	if err := s.notifier.SendEventToClient(e.ClientID, domain.EventCanvasSync, full); err != nil && !errors.Is(err, hub.ErrClientNotLocal) {
		return fmt.Errorf("send canvas-sync to %s: %w", e.ClientID, err)
	}
	return nil
}

// OnUpdateState stores the participant's state and broadcasts it.
func (s *EventService) OnUpdateState(ctx context.Context, e relay.UpdateState) error {
	state := e.State.Normalize()
	if err := s.stateRepo.SaveCanvasState(ctx, e.RoomCode, e.ClientID, state); err != nil {
		if errors.Is(err, repository.ErrRoomNotLive) {
			s.logCtx(e).Debug("Dropping update-state for a room that is no longer live")
			return nil
		}
		if errors.Is(err, repository.ErrNotParticipant) {
			s.logCtx(e).WithField("client_id", e.ClientID).Debug("Dropping update-state from a client that left")
			return nil
		}
		return err
	}

	nickname, err := s.stateRepo.GetNickname(ctx, e.RoomCode, e.ClientID)
	if err != nil {
		return err
	}
	isHost, err := s.stateRepo.IsHost(ctx, e.RoomCode, e.ClientID)
	if err != nil {
		return err
	}

	_, err = s.notifier.BroadcastEvent(e.RoomCode, domain.EventStateUpdated, stateUpdatedData{
		ClientID: e.ClientID,
		Nickname: nickname,
		IsHost:   isHost,
		State:    state,
	})
	return err
}

// OnChangeBackground lets the host replace the room background.
func (s *EventService) OnChangeBackground(ctx context.Context, e relay.ChangeBackground) error {
	ok, err := s.senderIsHost(ctx, e, e.ClientID)
	if err != nil || !ok {
		return err
	}

	var bg domain.BackgroundDescriptor
	if e.BackgroundID == domain.CustomBackgroundID {
		bg = domain.CustomBackground(s.assetBaseURL, e.RoomCode)
	} else {
		entry, err := s.backgroundRepo.FindByID(ctx, e.BackgroundID)
		if err != nil {
			if errors.Is(err, repository.ErrBackgroundNotFound) {
				s.logCtx(e).WithField("background_id", e.BackgroundID).Warn("Dropping change-background for unknown background")
				return nil
			}
			return err
		}
		bg = domain.CatalogBackground(s.assetBaseURL, entry)
	}

	if err := s.stateRepo.SaveBackground(ctx, e.RoomCode, bg); err != nil {
		if errors.Is(err, repository.ErrRoomNotLive) {
			return nil
		}
		return err
	}

	_, err = s.notifier.BroadcastEvent(e.RoomCode, domain.EventBackgroundChanged, backgroundChangedData{
		RoomCode:   e.RoomCode,
		Background: bg.WithCacheBust(s.now().UnixMilli()),
	})
	return err
}

// OnStartRecording starts a video countdown with a fixed lead-in buffer.
func (s *EventService) OnStartRecording(ctx context.Context, e relay.StartRecording) error {
	ok, err := s.senderIsHost(ctx, e, e.ClientID)
	if err != nil || !ok {
		return err
	}
	return s.broadcastCountdown(e.RoomCode, e.Duration+recordingBufferSeconds, CountdownVideo)
}

// OnStartPhoto starts a photo countdown.
func (s *EventService) OnStartPhoto(ctx context.Context, e relay.StartPhoto) error {
	ok, err := s.senderIsHost(ctx, e, e.ClientID)
	if err != nil || !ok {
		return err
	}
	return s.broadcastCountdown(e.RoomCode, photoCountdownSeconds, CountdownPhoto)
}

func (s *EventService) broadcastCountdown(roomCode string, duration int, kind string) error {
	_, err := s.notifier.BroadcastEvent(roomCode, domain.EventCountdownStart, countdownData{
		RoomCode:  roomCode,
		StartedAt: s.now().Format(time.RFC3339Nano),
		Duration:  duration,
		Type:      kind,
	})
	return err
}

// OnAssignHost announces a host transfer. The marker itself was swapped by
// the publisher before the event was sent.
func (s *EventService) OnAssignHost(ctx context.Context, e relay.AssignHost) error {
	nicknames, err := s.stateRepo.GetNicknames(ctx, e.RoomCode)
	if err != nil {
		return err
	}
	_, err = s.notifier.BroadcastEvent(e.RoomCode, domain.EventHostChanged, hostChangedData{
		RoomCode:     e.RoomCode,
		NewHost:      participantRef{ClientID: e.To, Nickname: nicknames[e.To]},
		PreviousHost: participantRef{ClientID: e.From, Nickname: nicknames[e.From]},
	})
	return err
}

// OnLeaveRoom broadcasts user-left with the participants that remain.
func (s *EventService) OnLeaveRoom(ctx context.Context, e relay.LeaveRoom) error {
	var nickname string
	if e.Nickname != nil {
		nickname = *e.Nickname
	} else {
		n, err := s.stateRepo.GetNickname(ctx, e.RoomCode, e.ClientID)
		if err != nil {
			return err
		}
		nickname = n
	}

	var isHost bool
	if e.IsHost != nil {
		isHost = *e.IsHost
	} else {
		h, err := s.stateRepo.IsHost(ctx, e.RoomCode, e.ClientID)
		if err != nil {
			return err
		}
		isHost = h
	}

	remaining, err := s.stateRepo.GetNicknames(ctx, e.RoomCode)
	if err != nil {
		return err
	}
	if remaining == nil {
		remaining = map[string]string{}
	}
	delete(remaining, e.ClientID)

	_, err = s.notifier.BroadcastEvent(e.RoomCode, domain.EventUserLeft, userLeftData{
		RoomCode:     e.RoomCode,
		LastLeaver:   leaverRef{ClientID: e.ClientID, Nickname: nickname, IsHost: isHost},
		Participants: remaining,
	})
	// The leaver's socket, if it is here, must stop receiving room traffic.
	s.notifier.Disconnect(e.ClientID)
	return err
}

// OnSignal delivers a relayed signaling frame if its target is connected
// here. Other processes ignore it.
func (s *EventService) OnSignal(_ context.Context, e relay.Signal) error {
	err := s.notifier.SendToClient(e.Target, e.Frame)
	if errors.Is(err, hub.ErrClientNotLocal) {
		return nil
	}
	return err
}

// senderIsHost checks the host marker. Non-host senders are dropped
// silently.
func (s *EventService) senderIsHost(ctx context.Context, e relay.Event, clientID string) (bool, error) {
	isHost, err := s.stateRepo.IsHost(ctx, e.Room(), clientID)
	if err != nil {
		return false, err
	}
	if !isHost {
		s.logCtx(e).WithField("client_id", clientID).Debug("Ignoring host-only event from non-host")
	}
	return isHost, nil
}

func (s *EventService) logCtx(e relay.Event) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"event": e.Name(), "room_code": e.Room()})
}
