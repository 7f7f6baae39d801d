package usecase

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"doctor-appointment-api/config"
	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/gateway"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// pendingQueue keeps payments in memory and orders the pending scan the way the SQL repository does.
type pendingQueue struct {
	payments []*entity.Payment
}

func (q *pendingQueue) Create(ctx context.Context, db *gorm.DB, payment *entity.Payment) error {
	q.payments = append(q.payments, payment)
	return nil
}

func (q *pendingQueue) FindByAppointmentAndTransaction(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID, transactionID string) (*entity.Payment, error) {
	for _, p := range q.payments {
		if p.AppointmentID == appointmentID && p.TransactionID != nil && *p.TransactionID == transactionID {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (q *pendingQueue) FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Payment, error) {
	return nil, nil
}

func (q *pendingQueue) FindPendingBefore(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]entity.Payment, error) {
	var due []*entity.Payment
	for _, p := range q.payments {
		if p.Status == entity.PaymentRecordPending && p.TransactionID != nil && p.CreatedAt.Before(before) {
			due = append(due, p)
		}
	}

	// reconciled_at ASC NULLS FIRST, created_at ASC
	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].ReconciledAt, due[j].ReconciledAt
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	out := make([]entity.Payment, 0, len(due))
	for _, p := range due {
		out = append(out, *p)
	}
	return out, nil
}

func (q *pendingQueue) MarkReconcileChecked(ctx context.Context, db *gorm.DB, ids []uuid.UUID, at time.Time) error {
	for _, id := range ids {
		for _, p := range q.payments {
			if p.ID == id {
				checkedAt := at
				p.ReconciledAt = &checkedAt
			}
		}
	}
	return nil
}

func (q *pendingQueue) UpdateResult(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.PaymentRecordStatus, receiptURL *string) error {
	for _, p := range q.payments {
		if p.ID == id {
			p.Status = status
			p.ReceiptURL = receiptURL
		}
	}
	return nil
}

func TestReconcilePending_AbandonedIntentsDoNotHoldTheBatch(t *testing.T) {
	db, sql := newMockDB(t)
	appointments := new(MockAppointmentRepository)
	audit := new(MockAuditService)
	provider := new(MockPaymentGateway)
	queue := &pendingQueue{}
	u := NewPaymentUsecase(db, testLogger(), appointments, new(MockDoctorProfileRepository), queue, audit, provider,
		config.PaymentConfig{Currency: "usd", Timeout: time.Second},
		config.ReconcileConfig{MinAge: time.Minute, BatchSize: 10})

	// A full batch of abandoned intents, all older than the one that gets paid.
	oldest := time.Now().Add(-48 * time.Hour)
	for i := 0; i < 10; i++ {
		p := pendingPayment(uuid.New(), fmt.Sprintf("pi_abandoned_%d", i))
		p.CreatedAt = oldest.Add(time.Duration(i) * time.Minute)
		queue.payments = append(queue.payments, p)
		provider.On("RetrieveIntent", mock.Anything, *p.TransactionID).
			Return(&gateway.Intent{ID: *p.TransactionID, Status: "requires_payment_method"}, nil)
	}

	appointment := testAppointment(uuid.New(), uuid.New(), entity.AppointmentStatusPending)
	paid := pendingPayment(appointment.ID, "pi_paid_later")
	paid.CreatedAt = time.Now().Add(-time.Hour)
	queue.payments = append(queue.payments, paid)
	provider.On("RetrieveIntent", mock.Anything, "pi_paid_later").
		Return(&gateway.Intent{ID: "pi_paid_later", Status: "succeeded"}, nil)

	appointments.On("FindByID", mock.Anything, mock.Anything, appointment.ID).Return(appointment, nil)
	appointments.On("UpdatePaymentState", mock.Anything, mock.Anything, appointment.ID,
		entity.PaymentStatusPaid, entity.AppointmentStatusConfirmed).Return(nil).Once()
	audit.On("LogUpdate", mock.Anything, mock.Anything, (*uuid.UUID)(nil), entity.AuditActionPaymentReconcile, "payment",
		paid.ID.String(), mock.Anything, mock.Anything).Return(nil).Once()
	sql.ExpectBegin()
	sql.ExpectCommit()

	ctx := context.Background()

	settled, err := u.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Zero(t, settled)
	provider.AssertNotCalled(t, "RetrieveIntent", mock.Anything, "pi_paid_later")

	settled, err = u.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	assert.Equal(t, entity.PaymentRecordSuccess, paid.Status)

	settled, err = u.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Zero(t, settled)

	for _, p := range queue.payments[:10] {
		assert.Equal(t, entity.PaymentRecordPending, p.Status)
		assert.NotNil(t, p.ReconciledAt)
	}
	appointments.AssertExpectations(t)
	audit.AssertExpectations(t)
	assert.NoError(t, sql.ExpectationsWereMet())
}
