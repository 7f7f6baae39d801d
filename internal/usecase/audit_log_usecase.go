package usecase

import (
	"context"

	"doctor-appointment-api/internal/authz"
	"doctor-appointment-api/internal/converter"
	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/repository"
	"doctor-appointment-api/pkg/apperror"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAuditLogNotFound = apperror.New(apperror.NotFound, "Audit log not found")
)

type AuditLogUsecase interface {
	GetAllAuditLogs(ctx context.Context, page, limit int) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error)
}

type auditLogUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:           db,
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

func (u *auditLogUsecase) GetAllAuditLogs(ctx context.Context, page, limit int) (*dto.AuditLogListResponse, error) {
	if _, err := authz.Require(ctx, entity.RoleIDAdmin); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit)

	logs, total, err := u.auditLogRepo.FindAll(ctx, u.db, limit, (page-1)*limit)
	if err != nil {
		u.log.Warnf("Failed to find all audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: total,
		Page:  page,
		Pages: totalPages(total, limit),
	}, nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	if _, err := authz.Require(ctx, entity.RoleIDAdmin); err != nil {
		return nil, err
	}

	auditLog, err := u.auditLogRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find audit log %d: %+v", id, err)
		return nil, err
	}
	if auditLog == nil {
		return nil, ErrAuditLogNotFound
	}

	return converter.AuditLogToResponse(auditLog), nil
}
