package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"clov-canvas/internal/domain"
	"clov-canvas/internal/repository"
)

// GormBackgroundRepository reads the background catalog.
type GormBackgroundRepository struct {
	db *gorm.DB
}

var _ repository.BackgroundRepository = (*GormBackgroundRepository)(nil)

// NewGormBackgroundRepository creates a GormBackgroundRepository.
func NewGormBackgroundRepository(db *gorm.DB) *GormBackgroundRepository {
	if db == nil {
		panic("database connection cannot be nil for GormBackgroundRepository")
	}
	return &GormBackgroundRepository{db: db}
}

func (r *GormBackgroundRepository) FindByID(ctx context.Context, id int64) (*domain.Background, error) {
	var bg domain.Background
	if err := r.db.WithContext(ctx).First(&bg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBackgroundNotFound
		}
		return nil, fmt.Errorf("gorm: find background %d: %w", id, err)
	}
	return &bg, nil
}

func (r *GormBackgroundRepository) FindDefault(ctx context.Context) (*domain.Background, error) {
	var bg domain.Background
	if err := r.db.WithContext(ctx).Order("id ASC").First(&bg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBackgroundNotFound
		}
		return nil, fmt.Errorf("gorm: find default background: %w", err)
	}
	return &bg, nil
}

func (r *GormBackgroundRepository) List(ctx context.Context) ([]domain.Background, error) {
	var bgs []domain.Background
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&bgs).Error; err != nil {
		return nil, fmt.Errorf("gorm: list backgrounds: %w", err)
	}
	return bgs, nil
}
