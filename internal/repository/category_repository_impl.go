package repository

import (
	"context"
	"errors"

	"doctor-appointment-api/internal/domain/entity"
	domainRepo "doctor-appointment-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type categoryRepository struct{}

func NewCategoryRepository() domainRepo.CategoryRepository {
	return &categoryRepository{}
}

func (r *categoryRepository) Create(ctx context.Context, db *gorm.DB, category *entity.Category) error {
	return db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Category, error) {
	var category entity.Category
	err := db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindAll(ctx context.Context, db *gorm.DB) ([]entity.Category, error) {
	var categories []entity.Category
	if err := db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, db *gorm.DB, category *entity.Category) error {
	return db.WithContext(ctx).Save(category).Error
}

func (r *categoryRepository) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Category{})
	return result.RowsAffected, result.Error
}
