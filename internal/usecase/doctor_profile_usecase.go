package usecase

import (
	"context"
	"strings"

	"doctor-appointment-api/internal/authz"
	"doctor-appointment-api/internal/converter"
	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/repository"
	"doctor-appointment-api/internal/service"
	"doctor-appointment-api/pkg/apperror"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDoctorProfileExists = apperror.New(apperror.Conflict, "Doctor profile already exists")
	ErrInvalidFee          = apperror.New(apperror.InvalidArgument, "Fees must be greater than 0")
	ErrInvalidCategoryID   = apperror.New(apperror.InvalidArgument, "Invalid category ID")
	ErrEmptySlotLabel      = apperror.New(apperror.InvalidArgument, "Slot labels must not be empty")
)

const doctorEntity = "doctor"

type DoctorProfileUsecase interface {
	CreateProfile(ctx context.Context, req *dto.CreateDoctorProfileRequest) (*dto.DoctorResponse, error)
	UpdateProfile(ctx context.Context, req *dto.UpdateDoctorProfileRequest) (*dto.DoctorResponse, error)
	UpdateAvailability(ctx context.Context, req *dto.UpdateAvailabilityRequest) (*dto.DoctorResponse, error)
	GetDoctors(ctx context.Context, query *dto.DoctorListQuery) (*dto.DoctorListResponse, error)
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
	GetAvailability(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailabilityResponse, error)
}

type doctorProfileUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	doctorProfileRepo repository.DoctorProfileRepository
	categoryRepo      repository.CategoryRepository
	slotLedger        *SlotLedger
	auditService      service.AuditService
}

func NewDoctorProfileUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorProfileRepo repository.DoctorProfileRepository,
	categoryRepo repository.CategoryRepository,
	slotLedger *SlotLedger,
	auditService service.AuditService,
) DoctorProfileUsecase {
	return &doctorProfileUsecase{
		db:                db,
		log:               log,
		doctorProfileRepo: doctorProfileRepo,
		categoryRepo:      categoryRepo,
		slotLedger:        slotLedger,
		auditService:      auditService,
	}
}

// CreateProfile creates the calling doctor's single profile.
func (u *doctorProfileUsecase) CreateProfile(ctx context.Context, req *dto.CreateDoctorProfileRequest) (*dto.DoctorResponse, error) {
	principal, err := authz.RequireDoctor(ctx)
	if err != nil {
		return nil, err
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, ErrInvalidCategoryID
	}
	if !req.Fee.GreaterThan(decimal.Zero) {
		return nil, ErrInvalidFee
	}
	slots, err := normalizeSlots(req.AvailableSlots)
	if err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	category, err := u.findCategory(ctx, tx, categoryID)
	if err != nil {
		return nil, err
	}

	existing, err := u.doctorProfileRepo.FindByUserID(ctx, tx, principal.UserID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile %s: %+v", principal.UserID, err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrDoctorProfileExists
	}

	profile := &entity.DoctorProfile{
		UserID:         principal.UserID,
		CategoryID:     categoryID,
		Specialization: req.Specialization,
		Experience:     req.Experience,
		Fee:            req.Fee,
		AvailableSlots: slots,
		Bio:            req.Bio,
		ClinicName:     req.ClinicName,
		ClinicAddress:  req.ClinicAddress,
	}
	if err := u.doctorProfileRepo.Create(ctx, tx, profile); err != nil {
		if apperror.IsUniqueViolation(err, "") {
			return nil, ErrDoctorProfileExists
		}
		u.log.Warnf("Failed to create doctor profile: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &principal.UserID, entity.AuditActionDoctorCreate, doctorEntity, profile.UserID.String(),
		converter.DoctorProfileToProfileResponse(profile)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	profile.Category = *category
	return u.reload(ctx, profile)
}

// UpdateProfile applies only the fields present in the request
func (u *doctorProfileUsecase) UpdateProfile(ctx context.Context, req *dto.UpdateDoctorProfileRequest) (*dto.DoctorResponse, error) {
	return u.update(ctx, func(ctx context.Context, tx *gorm.DB, profile *entity.DoctorProfile) error {
		if req.CategoryID != nil {
			categoryID, err := uuid.Parse(*req.CategoryID)
			if err != nil {
				return ErrInvalidCategoryID
			}
			if _, err := u.findCategory(ctx, tx, categoryID); err != nil {
				return err
			}
			profile.CategoryID = categoryID
		}
		if req.Fee != nil {
			if !req.Fee.GreaterThan(decimal.Zero) {
				return ErrInvalidFee
			}
			profile.Fee = *req.Fee
		}
		if req.Specialization != nil {
			profile.Specialization = *req.Specialization
		}
		if req.Experience != nil {
			profile.Experience = *req.Experience
		}
		if req.Bio != nil {
			profile.Bio = *req.Bio
		}
		if req.ClinicName != nil {
			profile.ClinicName = *req.ClinicName
		}
		if req.ClinicAddress != nil {
			profile.ClinicAddress = *req.ClinicAddress
		}
		return nil
	})
}

// UpdateAvailability replaces the slot labels. Existing appointments keep their slot even if
// the label is removed.
func (u *doctorProfileUsecase) UpdateAvailability(ctx context.Context, req *dto.UpdateAvailabilityRequest) (*dto.DoctorResponse, error) {
	slots, err := normalizeSlots(req.AvailableSlots)
	if err != nil {
		return nil, err
	}
	return u.update(ctx, func(ctx context.Context, tx *gorm.DB, profile *entity.DoctorProfile) error {
		profile.AvailableSlots = slots
		return nil
	})
}

func (u *doctorProfileUsecase) GetDoctors(ctx context.Context, query *dto.DoctorListQuery) (*dto.DoctorListResponse, error) {
	page, limit := normalizePage(query.Page, query.Limit)

	filter := &entity.DoctorFilter{
		Specialization: query.Specialization,
		Name:           query.Name,
		Limit:          limit,
		Offset:         (page - 1) * limit,
	}
	if query.CategoryID != "" {
		categoryID, err := uuid.Parse(query.CategoryID)
		if err != nil {
			return nil, ErrInvalidCategoryID
		}
		filter.CategoryID = &categoryID
	}

	profiles, total, err := u.doctorProfileRepo.FindAll(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to find doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorProfilesToResponses(profiles),
		Total:   total,
		Page:    page,
		Pages:   totalPages(total, limit),
	}, nil
}

func (u *doctorProfileUsecase) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	profile, err := u.findProfile(ctx, u.db, doctorID)
	if err != nil {
		return nil, err
	}
	return converter.DoctorProfileToResponse(profile), nil
}

// GetAvailability lists the doctor's configured slots that are free on date.
func (u *doctorProfileUsecase) GetAvailability(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailabilityResponse, error) {
	day, err := entity.ParseAppointmentDate(date)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	profile, err := u.findProfile(ctx, u.db, doctorID)
	if err != nil {
		return nil, err
	}

	booked, err := u.slotLedger.BookedSlots(ctx, u.db, doctorID, day)
	if err != nil {
		u.log.Warnf("Failed to load booked slots for doctor %s on %s: %+v", doctorID, date, err)
		return nil, err
	}
	if booked == nil {
		booked = []string{}
	}

	return &dto.AvailabilityResponse{
		DoctorID:       doctorID,
		Date:           day.Format(entity.DateLayout),
		AvailableSlots: profile.FreeSlots(booked),
		BookedSlots:    booked,
	}, nil
}

// update loads the calling doctor's profile, applies mutate and saves it with an audit entry.
func (u *doctorProfileUsecase) update(ctx context.Context, mutate func(ctx context.Context, tx *gorm.DB, profile *entity.DoctorProfile) error) (*dto.DoctorResponse, error) {
	principal, err := authz.RequireDoctor(ctx)
	if err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	profile, err := u.findProfile(ctx, tx, principal.UserID)
	if err != nil {
		return nil, err
	}

	old := converter.DoctorProfileToProfileResponse(profile)
	if err := mutate(ctx, tx, profile); err != nil {
		return nil, err
	}

	if err := u.doctorProfileRepo.Update(ctx, tx, profile); err != nil {
		u.log.Warnf("Failed to update doctor profile %s: %+v", profile.UserID, err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, tx, &principal.UserID, entity.AuditActionDoctorUpdate, doctorEntity, profile.UserID.String(),
		old, converter.DoctorProfileToProfileResponse(profile)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return u.reload(ctx, profile)
}

// reload re-reads the profile with its relations for the response, falling back to what is in memory.
func (u *doctorProfileUsecase) reload(ctx context.Context, profile *entity.DoctorProfile) (*dto.DoctorResponse, error) {
	full, err := u.doctorProfileRepo.FindByUserID(ctx, u.db, profile.UserID)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload doctor profile %s: %+v", profile.UserID, err)
		return converter.DoctorProfileToResponse(profile), nil
	}
	return converter.DoctorProfileToResponse(full), nil
}

func (u *doctorProfileUsecase) findProfile(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	profile, err := u.doctorProfileRepo.FindByUserID(ctx, db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile %s: %+v", doctorID, err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrDoctorNotFound
	}
	return profile, nil
}

func (u *doctorProfileUsecase) findCategory(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Category, error) {
	category, err := u.categoryRepo.FindByID(ctx, db, id)
	if err != nil {
		u.log.Warnf("Failed to find category %s: %+v", id, err)
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// normalizeSlots trims labels and drops duplicates, keeping first-seen order.
func normalizeSlots(labels []string) (pq.StringArray, error) {
	seen := make(map[string]struct{}, len(labels))
	slots := make(pq.StringArray, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, ErrEmptySlotLabel
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		slots = append(slots, label)
	}
	return slots, nil
}
