package usecase

import (
	"context"
	"io"
	"testing"
	"time"

	"doctor-appointment-api/internal/authz"
	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/gateway"
	"doctor-appointment-api/internal/service"
	"doctor-appointment-api/pkg/jwt"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB returns a gorm handle whose transactions are recorded by sqlmock.
// Repositories are mocked, so only BEGIN/COMMIT/ROLLBACK reach the driver.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func withPrincipal(userID uuid.UUID, roleID int) context.Context {
	return authz.WithPrincipal(context.Background(), &authz.Principal{UserID: userID, RoleID: roleID, TokenID: "tok"})
}

// --- repositories ---

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	return m.Called(ctx, db, appointment).Error(0)
}

func (m *MockAppointmentRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error) {
	args := m.Called(ctx, db, patientID)
	return args.Get(0).([]entity.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	args := m.Called(ctx, db, doctorID)
	return args.Get(0).([]entity.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindActiveByPatientSlot(ctx context.Context, db *gorm.DB, patientID uuid.UUID, date time.Time, slot string) (*entity.Appointment, error) {
	args := m.Called(ctx, db, patientID, date, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) IsSlotTaken(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time, slot string) (bool, error) {
	args := m.Called(ctx, db, doctorID, date, slot)
	return args.Bool(0), args.Error(1)
}

func (m *MockAppointmentRepository) FindBookedSlots(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]string, error) {
	args := m.Called(ctx, db, doctorID, date)
	slots, _ := args.Get(0).([]string)
	return slots, args.Error(1)
}

func (m *MockAppointmentRepository) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus) error {
	return m.Called(ctx, db, id, status).Error(0)
}

func (m *MockAppointmentRepository) UpdatePaymentState(ctx context.Context, db *gorm.DB, id uuid.UUID, paymentStatus entity.PaymentStatus, status entity.AppointmentStatus) error {
	return m.Called(ctx, db, id, paymentStatus, status).Error(0)
}

func (m *MockAppointmentRepository) Cancel(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, db, id)
	return args.Get(0).(int64), args.Error(1)
}

type MockDoctorProfileRepository struct {
	mock.Mock
}

func (m *MockDoctorProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	return m.Called(ctx, db, profile).Error(0)
}

func (m *MockDoctorProfileRepository) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	args := m.Called(ctx, db, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DoctorProfile), args.Error(1)
}

func (m *MockDoctorProfileRepository) FindAll(ctx context.Context, db *gorm.DB, filter *entity.DoctorFilter) ([]entity.DoctorProfile, int64, error) {
	args := m.Called(ctx, db, filter)
	return args.Get(0).([]entity.DoctorProfile), args.Get(1).(int64), args.Error(2)
}

func (m *MockDoctorProfileRepository) Update(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	return m.Called(ctx, db, profile).Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, db *gorm.DB, payment *entity.Payment) error {
	return m.Called(ctx, db, payment).Error(0)
}

func (m *MockPaymentRepository) FindByAppointmentAndTransaction(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID, transactionID string) (*entity.Payment, error) {
	args := m.Called(ctx, db, appointmentID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Payment, error) {
	args := m.Called(ctx, db, patientID)
	return args.Get(0).([]entity.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindPendingBefore(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]entity.Payment, error) {
	args := m.Called(ctx, db, before, limit)
	return args.Get(0).([]entity.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkReconcileChecked(ctx context.Context, db *gorm.DB, ids []uuid.UUID, at time.Time) error {
	return m.Called(ctx, db, ids, at).Error(0)
}

func (m *MockPaymentRepository) UpdateResult(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.PaymentRecordStatus, receiptURL *string) error {
	return m.Called(ctx, db, id, status, receiptURL).Error(0)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, db *gorm.DB, category *entity.Category) error {
	return m.Called(ctx, db, category).Error(0)
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Category, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context, db *gorm.DB) ([]entity.Category, error) {
	args := m.Called(ctx, db)
	return args.Get(0).([]entity.Category), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, db *gorm.DB, category *entity.Category) error {
	return m.Called(ctx, db, category).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, db, id)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, db *gorm.DB, user *entity.User) error {
	return m.Called(ctx, db, user).Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*entity.User, error) {
	args := m.Called(ctx, db, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, db *gorm.DB, id uuid.UUID, hashedPassword string) error {
	return m.Called(ctx, db, id, hashedPassword).Error(0)
}

type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) FindByName(ctx context.Context, db *gorm.DB, name string) (*entity.Role, error) {
	args := m.Called(ctx, db, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Role), args.Error(1)
}

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	return m.Called(ctx, db, log).Error(0)
}

func (m *MockAuditLogRepository) FindAll(ctx context.Context, db *gorm.DB, limit, offset int) ([]entity.AuditLog, int64, error) {
	args := m.Called(ctx, db, limit, offset)
	return args.Get(0).([]entity.AuditLog), args.Get(1).(int64), args.Error(2)
}

func (m *MockAuditLogRepository) FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.AuditLog, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AuditLog), args.Error(1)
}

// --- services ---

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) LogCreate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error {
	return m.Called(ctx, tx, userID, action, entityName, entityID, newValue).Error(0)
}

func (m *MockAuditService) LogUpdate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	return m.Called(ctx, tx, userID, action, entityName, entityID, oldValue, newValue).Error(0)
}

func (m *MockAuditService) LogDelete(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue interface{}) error {
	return m.Called(ctx, tx, userID, action, entityName, entityID, oldValue).Error(0)
}

type MockSlotCache struct {
	mock.Mock
}

// BookedSlots calls load unless a cached value is configured.
func (m *MockSlotCache) BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, load service.SlotLoader) ([]string, error) {
	args := m.Called(ctx, doctorID, date)
	if cached, ok := args.Get(0).([]string); ok {
		return cached, args.Error(1)
	}
	return load(ctx)
}

func (m *MockSlotCache) Invalidate(ctx context.Context, doctorID uuid.UUID, date time.Time) {
	m.Called(ctx, doctorID, date)
}

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Store(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType, ttl time.Duration) error {
	return m.Called(ctx, userID, tokenID, tokenType, ttl).Error(0)
}

func (m *MockTokenStore) Exists(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) (bool, error) {
	args := m.Called(ctx, userID, tokenID, tokenType)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenStore) Revoke(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) error {
	return m.Called(ctx, userID, tokenID, tokenType).Error(0)
}

func (m *MockTokenStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// --- gateway ---

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Name() string {
	return "stripe"
}

func (m *MockPaymentGateway) CreateIntent(ctx context.Context, req gateway.ChargeRequest) (*gateway.Intent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Intent), args.Error(1)
}

func (m *MockPaymentGateway) RetrieveIntent(ctx context.Context, id string) (*gateway.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Intent), args.Error(1)
}
