package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"clov-canvas/internal/domain"
	"clov-canvas/internal/repository"
)

// CanvasSyncService periodically pushes full snapshots of rooms that have
// sessions on this process, but only when the snapshot changed since the
// last push.
type CanvasSyncService struct {
	stateRepo repository.StateRepository
	notifier  Notifier

	mu      sync.Mutex
	digests map[string]string
}

// NewCanvasSyncService creates a CanvasSyncService with an empty digest map.
func NewCanvasSyncService(stateRepo repository.StateRepository, notifier Notifier) *CanvasSyncService {
	if stateRepo == nil {
		panic("StateRepository cannot be nil for CanvasSyncService")
	}
	if notifier == nil {
		panic("Notifier cannot be nil for CanvasSyncService")
	}
	return &CanvasSyncService{
		stateRepo: stateRepo,
		notifier:  notifier,
		digests:   make(map[string]string),
	}
}

// Reconcile runs one pass over the live rooms and returns how many
// canvas-sync broadcasts were sent. A failing room does not stop the pass.
func (s *CanvasSyncService) Reconcile(ctx context.Context) (int, error) {
	codes, err := s.stateRepo.ListLiveRoomCodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("list live rooms: %w", err)
	}

	s.prune(codes)

	sent := 0
	for _, code := range codes {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if s.syncRoom(ctx, code) {
			sent++
		}
	}
	return sent, nil
}

// prune forgets digests of rooms that are no longer live.
func (s *CanvasSyncService) prune(live []string) {
	keep := make(map[string]struct{}, len(live))
	for _, code := range live {
		keep[code] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for code := range s.digests {
		if _, ok := keep[code]; !ok {
			delete(s.digests, code)
		}
	}
}

func (s *CanvasSyncService) syncRoom(ctx context.Context, roomCode string) (sent bool) {
	logCtx := logrus.WithField("room_code", roomCode)
	defer func() {
		if r := recover(); r != nil {
			logCtx.Errorf("Canvas sync panicked: %v", r)
			sent = false
		}
	}()

	if !s.notifier.HasLocalSubscribers(roomCode) {
		return false
	}

	full, err := s.stateRepo.GetFullState(ctx, roomCode)
	if err != nil {
		logCtx.WithError(err).Warn("Canvas sync: failed to read room state")
		return false
	}
	if len(full.Participants) == 0 {
		s.forget(roomCode)
		return false
	}

	digest, err := Digest(full)
	if err != nil {
		logCtx.WithError(err).Warn("Canvas sync: failed to compute digest")
		return false
	}

	s.mu.Lock()
	unchanged := s.digests[roomCode] == digest
	s.mu.Unlock()
	if unchanged {
		return false
	}

	if _, err := s.notifier.BroadcastEvent(roomCode, domain.EventCanvasSync, full); err != nil {
		logCtx.WithError(err).Warn("Canvas sync: broadcast failed")
		return false
	}

	s.mu.Lock()
	s.digests[roomCode] = digest
	s.mu.Unlock()
	return true
}

func (s *CanvasSyncService) forget(roomCode string) {
	s.mu.Lock()
	delete(s.digests, roomCode)
	s.mu.Unlock()
}
