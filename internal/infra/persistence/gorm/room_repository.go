package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"clov-canvas/internal/domain"
	"clov-canvas/internal/repository"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// GormRoomRepository is the GORM implementation of RoomRepository.
type GormRoomRepository struct {
	db *gorm.DB
}

var _ repository.RoomRepository = (*GormRoomRepository)(nil)

// NewGormRoomRepository creates a GormRoomRepository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

// Create inserts a room. A room code collision maps to ErrDuplicateEntry.
func (r *GormRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create room %s: %w", room.RoomCode, err)
	}
	return nil
}

// FindByCode looks a room up by its code.
func (r *GormRoomRepository) FindByCode(ctx context.Context, roomCode string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("room_code = ?", roomCode).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by code '%s': %w", roomCode, err)
	}
	return &room, nil
}

// MarkClosed closes an OPEN room. Closed or unknown rooms are not an error.
func (r *GormRoomRepository) MarkClosed(ctx context.Context, roomCode string, closedAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("room_code = ? AND status = ?", roomCode, domain.RoomStatusOpen).
		Updates(map[string]interface{}{"status": domain.RoomStatusClosed, "closed_at": closedAt}).Error
	if err != nil {
		return fmt.Errorf("gorm: mark room %s closed: %w", roomCode, err)
	}
	return nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
