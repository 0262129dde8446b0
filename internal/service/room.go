package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"clov-canvas/internal/domain"
	"clov-canvas/internal/relay"
	"clov-canvas/internal/repository"
)

const (
	maxNicknameLength  = 20
	maxCodeGenAttempts = 5
)

// RoomSession is what a participant receives after creating or joining a
// room.
type RoomSession struct {
	RoomCode string    `json:"roomCode"`
	ClientID string    `json:"clientId"`
	Nickname string    `json:"nickname"`
	IsHost   bool      `json:"isHost"`
	JoinedAt time.Time `json:"joinedAt"`
	Token    string    `json:"token"`
}

// RoomStatus is the public summary of a live room.
type RoomStatus struct {
	RoomCode         string `json:"roomCode"`
	Live             bool   `json:"live"`
	ParticipantCount int64  `json:"participantCount"`
}

// BackgroundInfo is one entry of the background catalog.
type BackgroundInfo struct {
	BackgroundID    int64  `json:"backgroundId"`
	BackgroundTitle string `json:"backgroundTitle"`
	BackgroundURL   string `json:"backgroundUrl"`
}

// ParticipantInfo is one entry of a room's participant list.
type ParticipantInfo struct {
	ClientID string `json:"clientId"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"isHost"`
}

// RoomServiceConfig holds the tunables of RoomService.
type RoomServiceConfig struct {
	RoomTTL         time.Duration
	MaxParticipants int
	AssetBaseURL    string
}

// RoomService owns the room flows that start from a client request:
// create, join, leave and host transfer.
type RoomService struct {
	roomRepo        repository.RoomRepository
	participantRepo repository.ParticipantRepository
	backgroundRepo  repository.BackgroundRepository
	stateRepo       repository.StateRepository
	publisher       EventPublisher
	lifecycle       *LifecycleService
	tokens          *TokenService
	cfg             RoomServiceConfig
	now             func() time.Time
}

// NewRoomService creates a RoomService.
func NewRoomService(
	roomRepo repository.RoomRepository,
	participantRepo repository.ParticipantRepository,
	backgroundRepo repository.BackgroundRepository,
	stateRepo repository.StateRepository,
	publisher EventPublisher,
	lifecycle *LifecycleService,
	tokens *TokenService,
	cfg RoomServiceConfig,
) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if participantRepo == nil {
		panic("ParticipantRepository cannot be nil for RoomService")
	}
	if backgroundRepo == nil {
		panic("BackgroundRepository cannot be nil for RoomService")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for RoomService")
	}
	if publisher == nil {
		panic("EventPublisher cannot be nil for RoomService")
	}
	if lifecycle == nil {
		panic("LifecycleService cannot be nil for RoomService")
	}
	if tokens == nil {
		panic("TokenService cannot be nil for RoomService")
	}
	if cfg.RoomTTL <= 0 {
		cfg.RoomTTL = domain.DefaultRoomTTL
	}
	if cfg.MaxParticipants <= 0 {
		cfg.MaxParticipants = domain.DefaultMaxParticipants
	}
	return &RoomService{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		backgroundRepo:  backgroundRepo,
		stateRepo:       stateRepo,
		publisher:       publisher,
		lifecycle:       lifecycle,
		tokens:          tokens,
		cfg:             cfg,
		now:             time.Now,
	}
}

// CreateRoom opens a new room with the caller as host.
func (s *RoomService) CreateRoom(ctx context.Context, nickname string) (*RoomSession, error) {
	nickname, err := validateNickname(nickname)
	if err != nil {
		return nil, err
	}
	hostID := uuid.NewString()
	logCtx := logrus.WithField("client_id", hostID)

	var bg *domain.BackgroundDescriptor
	if def, err := s.backgroundRepo.FindDefault(ctx); err == nil {
		d := domain.CatalogBackground(s.cfg.AssetBaseURL, def)
		bg = &d
	} else if !errors.Is(err, repository.ErrBackgroundNotFound) {
		logCtx.WithError(err).Warn("Failed to load default background, creating room without one")
	}

	room, err := s.insertRoomWithUniqueCode(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to create room record")
		return nil, ErrInternalServer
	}
	logCtx = logCtx.WithField("room_code", room.RoomCode)

	host := &domain.Participant{
		ClientID: hostID,
		RoomID:   room.ID,
		Nickname: nickname,
		IsHost:   true,
		JoinedAt: s.now(),
	}
	if err := s.participantRepo.Create(ctx, host); err != nil {
		logCtx.WithError(err).Error("Failed to create host participant record")
		s.abandonRoom(ctx, room.RoomCode)
		return nil, ErrInternalServer
	}

	if err := s.stateRepo.CreateRoom(ctx, repository.NewRoomState{
		RoomCode:     room.RoomCode,
		HostID:       hostID,
		HostNickname: nickname,
		State:        domain.InitialCanvasState(),
		Background:   bg,
		TTL:          s.cfg.RoomTTL,
	}); err != nil {
		logCtx.WithError(err).Error("Failed to create room state")
		s.markLeft(ctx, hostID)
		s.abandonRoom(ctx, room.RoomCode)
		return nil, ErrInternalServer
	}

	session, err := s.newSession(room.RoomCode, host)
	if err != nil {
		logCtx.WithError(err).Error("Failed to issue room token")
		return nil, ErrInternalServer
	}
	logCtx.Info("Room created")
	return session, nil
}

// abandonRoom closes the record of a room whose creation did not complete,
// so it never shows up as open.
func (s *RoomService) abandonRoom(ctx context.Context, roomCode string) {
	if err := s.roomRepo.MarkClosed(ctx, roomCode, s.now()); err != nil {
		logrus.WithError(err).WithField("room_code", roomCode).Warn("Failed to close abandoned room record")
	}
}

// insertRoomWithUniqueCode retries code generation on collisions with a live
// room or an existing record.
func (s *RoomService) insertRoomWithUniqueCode(ctx context.Context) (*domain.Room, error) {
	for attempt := 1; attempt <= maxCodeGenAttempts; attempt++ {
		code, err := domain.GenerateRoomCode()
		if err != nil {
			return nil, err
		}
		live, err := s.stateRepo.ExistsRoom(ctx, code)
		if err != nil {
			return nil, err
		}
		if live {
			logrus.WithField("room_code", code).Warnf("Room code is live, retrying (attempt %d)", attempt)
			continue
		}

		room := &domain.Room{RoomCode: code, Status: domain.RoomStatusOpen, CreatedAt: s.now()}
		err = s.roomRepo.Create(ctx, room)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, err
		}
		logrus.WithField("room_code", code).Warnf("Room code already used, retrying (attempt %d)", attempt)
	}
	return nil, fmt.Errorf("failed to generate a unique room code after %d attempts", maxCodeGenAttempts)
}

// JoinRoom adds a participant to a live, open room.
func (s *RoomService) JoinRoom(ctx context.Context, roomCode, nickname string) (*RoomSession, error) {
	if !domain.IsRoomCode(roomCode) {
		return nil, ErrRoomNotFound
	}
	nickname, err := validateNickname(nickname)
	if err != nil {
		return nil, err
	}
	logCtx := logrus.WithField("room_code", roomCode)

	live, err := s.stateRepo.ExistsRoom(ctx, roomCode)
	if err != nil {
		logCtx.WithError(err).Error("Failed to check room liveness")
		return nil, ErrInternalServer
	}
	if !live {
		return nil, ErrRoomNotFound
	}

	room, err := s.roomRepo.FindByCode(ctx, roomCode)
	if err != nil {
		if !errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.WithError(err).Error("Failed to load room record")
		}
		return nil, mapRepoError(err, ErrRoomNotFound)
	}
	if !room.IsOpen() {
		return nil, ErrRoomNotFound
	}

	count, err := s.stateRepo.CountParticipants(ctx, roomCode)
	if err != nil {
		logCtx.WithError(err).Error("Failed to count participants")
		return nil, ErrInternalServer
	}
	if count >= int64(s.cfg.MaxParticipants) {
		return nil, ErrRoomFull
	}

	p := &domain.Participant{
		ClientID: uuid.NewString(),
		RoomID:   room.ID,
		Nickname: nickname,
		JoinedAt: s.now(),
	}
	logCtx = logCtx.WithField("client_id", p.ClientID)
	if err := s.participantRepo.Create(ctx, p); err != nil {
		logCtx.WithError(err).Error("Failed to create participant record")
		return nil, ErrInternalServer
	}

	if err := s.stateRepo.JoinRoom(ctx, roomCode, p.ClientID, nickname, domain.InitialCanvasState()); err != nil {
		s.markLeft(ctx, p.ClientID)
		if errors.Is(err, repository.ErrRoomNotLive) {
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Failed to write participant state")
		return nil, ErrInternalServer
	}

	session, err := s.newSession(roomCode, p)
	if err != nil {
		logCtx.WithError(err).Error("Failed to issue room token")
		return nil, ErrInternalServer
	}
	logCtx.Info("Participant joined room")
	return session, nil
}

// LeaveRoom removes a participant. A departing host closes the room.
// Leaving twice is not an error.
func (s *RoomService) LeaveRoom(ctx context.Context, roomCode, clientID string) error {
	logCtx := logrus.WithFields(logrus.Fields{"room_code": roomCode, "client_id": clientID})

	nickname, err := s.stateRepo.GetNickname(ctx, roomCode, clientID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to resolve nickname")
		return ErrInternalServer
	}
	hostID, err := s.stateRepo.GetHost(ctx, roomCode)
	if err != nil {
		logCtx.WithError(err).Error("Failed to resolve host")
		return ErrInternalServer
	}
	isHost := hostID != "" && hostID == clientID

	if nickname == "" && !isHost {
		logCtx.Debug("Participant already left")
		s.markLeft(ctx, clientID)
		return nil
	}

	if isHost {
		if err := s.lifecycle.CloseRoomByHost(ctx, roomCode, clientID, nickname); err != nil {
			logCtx.WithError(err).Warn("Room closure after host leave completed with errors")
		}
		return nil
	}

	if err := s.stateRepo.DeleteParticipant(ctx, roomCode, clientID); err != nil {
		logCtx.WithError(err).Error("Failed to delete participant state")
		return ErrInternalServer
	}
	s.markLeft(ctx, clientID)

	if err := s.publisher.Publish(ctx, relay.LeaveRoom{
		RoomCode: roomCode,
		ClientID: clientID,
		Nickname: &nickname,
		IsHost:   &isHost,
	}); err != nil {
		logCtx.WithError(err).Error("Failed to publish leave-room")
		return ErrInternalServer
	}
	logCtx.Info("Participant left room")
	return nil
}

func (s *RoomService) markLeft(ctx context.Context, clientID string) {
	if err := s.participantRepo.MarkLeft(ctx, clientID, s.now()); err != nil && !errors.Is(err, repository.ErrParticipantNotFound) {
		logrus.WithError(err).WithField("client_id", clientID).Warn("Failed to stamp participant left_at")
	}
}

// ChangeHost hands the host role from fromID to toID. Only the current host
// may do this and the target must be in the room.
func (s *RoomService) ChangeHost(ctx context.Context, roomCode, fromID, toID string) error {
	if toID == "" || fromID == toID {
		return ErrInvalidInput
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_code": roomCode, "from": fromID, "to": toID})

	if _, err := s.stateRepo.GetCanvasState(ctx, roomCode, toID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrParticipantNotFound
		}
		logCtx.WithError(err).Error("Failed to look up new host")
		return ErrInternalServer
	}

	swapped, err := s.stateRepo.SwapHost(ctx, roomCode, fromID, toID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotLive) {
			return ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Failed to swap host marker")
		return ErrInternalServer
	}
	if !swapped {
		return ErrNotHost
	}

	if err := s.participantRepo.TransferHost(ctx, roomCode, fromID, toID); err != nil {
		// The live marker is authoritative; the record catches up on the next transfer.
		logCtx.WithError(err).Error("Failed to transfer host flag in record store")
	}

	if err := s.publisher.Publish(ctx, relay.AssignHost{RoomCode: roomCode, From: fromID, To: toID}); err != nil {
		logCtx.WithError(err).Error("Failed to publish assign-host")
		return ErrInternalServer
	}
	logCtx.Info("Host changed")
	return nil
}

// GetRoomStatus reports a live room's participant count.
func (s *RoomService) GetRoomStatus(ctx context.Context, roomCode string) (*RoomStatus, error) {
	if !domain.IsRoomCode(roomCode) {
		return nil, ErrRoomNotFound
	}
	live, err := s.stateRepo.ExistsRoom(ctx, roomCode)
	if err != nil {
		return nil, ErrInternalServer
	}
	if !live {
		return nil, ErrRoomNotFound
	}
	count, err := s.stateRepo.CountParticipants(ctx, roomCode)
	if err != nil {
		return nil, ErrInternalServer
	}
	return &RoomStatus{RoomCode: roomCode, Live: true, ParticipantCount: count}, nil
}

// ListBackgrounds returns the catalog in id order with URLs resolved
// against the asset base URL.
func (s *RoomService) ListBackgrounds(ctx context.Context) ([]BackgroundInfo, error) {
	bgs, err := s.backgroundRepo.List(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list backgrounds")
		return nil, ErrInternalServer
	}
	out := make([]BackgroundInfo, 0, len(bgs))
	for i := range bgs {
		desc := domain.CatalogBackground(s.cfg.AssetBaseURL, &bgs[i])
		out = append(out, BackgroundInfo{
			BackgroundID:    bgs[i].ID,
			BackgroundTitle: desc.Title,
			BackgroundURL:   desc.URL,
		})
	}
	return out, nil
}

// ListParticipants returns the participants of a live room sorted by
// client id.
func (s *RoomService) ListParticipants(ctx context.Context, roomCode string) ([]ParticipantInfo, error) {
	if !domain.IsRoomCode(roomCode) {
		return nil, ErrRoomNotFound
	}
	live, err := s.stateRepo.ExistsRoom(ctx, roomCode)
	if err != nil {
		return nil, ErrInternalServer
	}
	if !live {
		return nil, ErrRoomNotFound
	}
	full, err := s.stateRepo.GetFullState(ctx, roomCode)
	if err != nil {
		return nil, mapRepoError(err, ErrRoomNotFound)
	}
	out := make([]ParticipantInfo, 0, len(full.Participants))
	for _, p := range full.Participants {
		out = append(out, ParticipantInfo{ClientID: p.ClientID, Nickname: p.Nickname, IsHost: p.IsHost})
	}
	return out, nil
}

// IsRoomLive is used by the websocket endpoint before upgrading.
func (s *RoomService) IsRoomLive(ctx context.Context, roomCode string) (bool, error) {
	return s.stateRepo.ExistsRoom(ctx, roomCode)
}

func (s *RoomService) newSession(roomCode string, p *domain.Participant) (*RoomSession, error) {
	token, err := s.tokens.IssueRoomToken(roomCode, p.ClientID)
	if err != nil {
		return nil, err
	}
	return &RoomSession{
		RoomCode: roomCode,
		ClientID: p.ClientID,
		Nickname: p.Nickname,
		IsHost:   p.IsHost,
		JoinedAt: p.JoinedAt,
		Token:    token,
	}, nil
}

func validateNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || utf8.RuneCountInString(nickname) > maxNicknameLength {
		return "", ErrInvalidInput
	}
	return nickname, nil
}
