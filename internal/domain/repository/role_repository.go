package repository

import (
	"context"

	"doctor-appointment-api/internal/domain/entity"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindByName(ctx context.Context, db *gorm.DB, name string) (*entity.Role, error)
}
