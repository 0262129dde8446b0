package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"clov-canvas/internal/domain"
	"clov-canvas/internal/repository"
)

// GormParticipantRepository is the GORM implementation of
// ParticipantRepository.
type GormParticipantRepository struct {
	db *gorm.DB
}

var _ repository.ParticipantRepository = (*GormParticipantRepository)(nil)

// NewGormParticipantRepository creates a GormParticipantRepository.
func NewGormParticipantRepository(db *gorm.DB) *GormParticipantRepository {
	if db == nil {
		panic("database connection cannot be nil for GormParticipantRepository")
	}
	return &GormParticipantRepository{db: db}
}

func (r *GormParticipantRepository) Create(ctx context.Context, p *domain.Participant) error {
	if err := r.db.WithContext(ctx).Omit("Room").Create(p).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create participant %s: %w", p.ClientID, err)
	}
	return nil
}

func (r *GormParticipantRepository) FindByClientID(ctx context.Context, clientID string) (*domain.Participant, error) {
	var p domain.Participant
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("gorm: find participant '%s': %w", clientID, err)
	}
	return &p, nil
}

func (r *GormParticipantRepository) ListByRoomCode(ctx context.Context, roomCode string) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.WithContext(ctx).
		Joins("JOIN rooms ON rooms.id = room_participants.room_id").
		Where("rooms.room_code = ?", roomCode).
		Order("room_participants.joined_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list participants of room %s: %w", roomCode, err)
	}
	return participants, nil
}

// MarkLeft stamps left_at once. ErrParticipantNotFound if the client has no
// record.
func (r *GormParticipantRepository) MarkLeft(ctx context.Context, clientID string, leftAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.Participant{}).
		Where("client_id = ? AND left_at IS NULL", clientID).
		Update("left_at", leftAt)
	if result.Error != nil {
		return fmt.Errorf("gorm: mark participant %s left: %w", clientID, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Participant{}).Where("client_id = ?", clientID).Count(&count).Error; err != nil {
			return fmt.Errorf("gorm: count participant %s: %w", clientID, err)
		}
		if count == 0 {
			return repository.ErrParticipantNotFound
		}
	}
	return nil
}

func (r *GormParticipantRepository) MarkAllLeft(ctx context.Context, roomCode string, leftAt time.Time) (int64, error) {
	roomIDs := r.db.Model(&domain.Room{}).Select("id").Where("room_code = ?", roomCode)
	result := r.db.WithContext(ctx).Model(&domain.Participant{}).
		Where("room_id IN (?) AND left_at IS NULL", roomIDs).
		Update("left_at", leftAt)
	if result.Error != nil {
		return 0, fmt.Errorf("gorm: mark participants of room %s left: %w", roomCode, result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GormParticipantRepository) TransferHost(ctx context.Context, roomCode, fromClientID, toClientID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Participant{}).
			Where("client_id = ?", fromClientID).
			Update("is_host", false).Error; err != nil {
			return err
		}
		result := tx.Model(&domain.Participant{}).
			Where("client_id = ?", toClientID).
			Update("is_host", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrParticipantNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return err
		}
		return fmt.Errorf("gorm: transfer host of room %s from %s to %s: %w", roomCode, fromClientID, toClientID, err)
	}
	return nil
}

// SaveLastStates writes every client's final state in one transaction.
func (r *GormParticipantRepository) SaveLastStates(ctx context.Context, states map[string]string) error {
	if len(states) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for clientID, state := range states {
			if err := tx.Model(&domain.Participant{}).
				Where("client_id = ?", clientID).
				Update("last_state", state).Error; err != nil {
				return fmt.Errorf("client %s: %w", clientID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("gorm: save last states: %w", err)
	}
	return nil
}
