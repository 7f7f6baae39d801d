package repository

import (
	"context"
	"errors"

	"doctor-appointment-api/internal/domain/entity"
	domainRepo "doctor-appointment-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorProfileRepository struct{}

func NewDoctorProfileRepository() domainRepo.DoctorProfileRepository {
	return &doctorProfileRepository{}
}

func (r *doctorProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	return db.WithContext(ctx).Omit("User", "Category").Create(profile).Error
}

func (r *doctorProfileRepository) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	var profile entity.DoctorProfile
	err := db.WithContext(ctx).
		Preload("User").Preload("Category").
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FindAll returns one page of doctors whose user account is active, plus the total match count.
func (r *doctorProfileRepository) FindAll(ctx context.Context, db *gorm.DB, filter *entity.DoctorFilter) ([]entity.DoctorProfile, int64, error) {
	query := db.WithContext(ctx).Model(&entity.DoctorProfile{}).
		Joins("JOIN users ON users.id = doctor_profiles.user_id").
		Where("users.is_active = ?", true)

	if filter != nil {
		if filter.CategoryID != nil {
			query = query.Where("doctor_profiles.category_id = ?", *filter.CategoryID)
		}
		if filter.Specialization != "" {
			query = query.Where("doctor_profiles.specialization ILIKE ?", "%"+filter.Specialization+"%")
		}
		if filter.Name != "" {
			query = query.Where("users.full_name ILIKE ?", "%"+filter.Name+"%")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter != nil && filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var profiles []entity.DoctorProfile
	err := query.
		Preload("User").Preload("Category").
		Order("users.full_name ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (r *doctorProfileRepository) Update(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	return db.WithContext(ctx).Omit("User", "Category").Save(profile).Error
}
