package repository

import (
	"context"

	"doctor-appointment-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error)
	FindAll(ctx context.Context, db *gorm.DB, filter *entity.DoctorFilter) ([]entity.DoctorProfile, int64, error)
	Update(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error
}
