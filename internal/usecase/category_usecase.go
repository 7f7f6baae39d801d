package usecase

import (
	"context"

	"doctor-appointment-api/internal/authz"
	"doctor-appointment-api/internal/converter"
	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/repository"
	"doctor-appointment-api/internal/service"
	"doctor-appointment-api/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound = apperror.New(apperror.NotFound, "Category not found")
	ErrCategoryExists   = apperror.New(apperror.Conflict, "Category name already exists")
	ErrCategoryInUse    = apperror.New(apperror.Conflict, "Category is assigned to doctors")
)

const categoryEntity = "category"

type CategoryUsecase interface {
	Create(ctx context.Context, req *dto.CategoryRequest) (*dto.CategoryResponse, error)
	GetAll(ctx context.Context) ([]dto.CategoryResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.CategoryResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.CategoryRequest) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	categoryRepo repository.CategoryRepository
	auditService service.AuditService
}

func NewCategoryUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	categoryRepo repository.CategoryRepository,
	auditService service.AuditService,
) CategoryUsecase {
	return &categoryUsecase{
		db:           db,
		log:          log,
		categoryRepo: categoryRepo,
		auditService: auditService,
	}
}

func (u *categoryUsecase) Create(ctx context.Context, req *dto.CategoryRequest) (*dto.CategoryResponse, error) {
	principal, err := authz.Require(ctx, entity.RoleIDAdmin)
	if err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	category := &entity.Category{Name: req.Name, Description: req.Description}
	if err := u.categoryRepo.Create(ctx, tx, category); err != nil {
		if apperror.IsUniqueViolation(err, "name") {
			return nil, ErrCategoryExists
		}
		u.log.Warnf("Failed to create category: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &principal.UserID, entity.AuditActionCategoryCreate, categoryEntity, category.ID.String(), category); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.CategoryToResponse(category), nil
}

// GetAll lists categories sorted by name
func (u *categoryUsecase) GetAll(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := u.categoryRepo.FindAll(ctx, u.db)
	if err != nil {
		u.log.Warnf("Failed to find categories: %+v", err)
		return nil, err
	}
	return converter.CategoriesToResponses(categories), nil
}

func (u *categoryUsecase) GetByID(ctx context.Context, id uuid.UUID) (*dto.CategoryResponse, error) {
	category, err := u.categoryRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find category %s: %+v", id, err)
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return converter.CategoryToResponse(category), nil
}

func (u *categoryUsecase) Update(ctx context.Context, id uuid.UUID, req *dto.CategoryRequest) (*dto.CategoryResponse, error) {
	principal, err := authz.Require(ctx, entity.RoleIDAdmin)
	if err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	category, err := u.categoryRepo.FindByID(ctx, tx, id)
	if err != nil {
		u.log.Warnf("Failed to find category %s: %+v", id, err)
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	old := *category
	category.Name = req.Name
	category.Description = req.Description

	if err := u.categoryRepo.Update(ctx, tx, category); err != nil {
		if apperror.IsUniqueViolation(err, "name") {
			return nil, ErrCategoryExists
		}
		u.log.Warnf("Failed to update category %s: %+v", id, err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, tx, &principal.UserID, entity.AuditActionCategoryUpdate, categoryEntity, id.String(), old, category); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.CategoryToResponse(category), nil
}

func (u *categoryUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	principal, err := authz.Require(ctx, entity.RoleIDAdmin)
	if err != nil {
		return err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	category, err := u.categoryRepo.FindByID(ctx, tx, id)
	if err != nil {
		u.log.Warnf("Failed to find category %s: %+v", id, err)
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	if _, err := u.categoryRepo.Delete(ctx, tx, id); err != nil {
		if apperror.IsForeignKeyViolation(err, "") {
			return ErrCategoryInUse
		}
		u.log.Warnf("Failed to delete category %s: %+v", id, err)
		return err
	}

	if err := u.auditService.LogDelete(ctx, tx, &principal.UserID, entity.AuditActionCategoryDelete, categoryEntity, id.String(), category); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	return nil
}
