package repository

import (
	"context"

	"doctor-appointment-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, db *gorm.DB, category *entity.Category) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Category, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]entity.Category, error)
	Update(ctx context.Context, db *gorm.DB, category *entity.Category) error
	Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error)
}
