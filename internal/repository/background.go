package repository

import (
	"context"

	"clov-canvas/internal/domain"
)

// BackgroundRepository reads the background catalog.
type BackgroundRepository interface {
	// FindByID returns ErrBackgroundNotFound for unknown ids.
	FindByID(ctx context.Context, id int64) (*domain.Background, error)

	// FindDefault returns the catalog entry with the lowest id.
	FindDefault(ctx context.Context) (*domain.Background, error)

	List(ctx context.Context) ([]domain.Background, error)
}
