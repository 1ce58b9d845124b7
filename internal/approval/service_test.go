package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/ledger"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	require.NoError(t, ledger.Migrate(db))
	return NewService(db, NewRepository(), ledger.NewRepository(), nil), db
}

func seedApproval(t *testing.T, db *gorm.DB, recipientID uint) *CommissionApproval {
	t.Helper()
	a := &CommissionApproval{
		DealID:         1,
		Level:          1,
		RecipientID:    recipientID,
		Role:           "Direct Referrer",
		Percentage:     60,
		AutoAmount:     money.FromPounds(600),
		FinalAmount:    money.FromPounds(600),
		ApprovalStatus: StatusPending,
		PaymentStatus:  PaymentPending,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func TestApproveByRecipient(t *testing.T) {
	svc, db := newTestService(t)
	a := seedApproval(t, db, 10)

	out, err := svc.Approve(a.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, out.ApprovalStatus)
	assert.NotNil(t, out.DecidedAt)
}

func TestRejectByRecipient(t *testing.T) {
	svc, db := newTestService(t)
	a := seedApproval(t, db, 10)

	out, err := svc.Reject(a.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, out.ApprovalStatus)
}

func TestDecideByWrongActorIsForbidden(t *testing.T) {
	svc, db := newTestService(t)
	a := seedApproval(t, db, 10)

	_, err := svc.Approve(a.ID, 11)
	assert.ErrorIs(t, err, ErrForbidden)

	fresh, err := svc.Repo.FindByID(db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fresh.ApprovalStatus)
}

func TestRedecideFails(t *testing.T) {
	svc, db := newTestService(t)
	a := seedApproval(t, db, 10)

	_, err := svc.Approve(a.ID, 10)
	require.NoError(t, err)

	_, err = svc.Approve(a.ID, 10)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	// A reject cannot overwrite an approve either.
	_, err = svc.Reject(a.ID, 10)
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestDecideMissingApproval(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Approve(404, 10)
	assert.ErrorIs(t, err, ErrApprovalNotFound)
}

func TestProcessPaymentRequiresApproval(t *testing.T) {
	svc, db := newTestService(t)
	a := seedApproval(t, db, 10)

	_, err := svc.ProcessPayment(a.ID, "")
	assert.ErrorIs(t, err, ErrNotApproved)

	_, err = svc.Reject(a.ID, 10)
	require.NoError(t, err)
	_, err = svc.ProcessPayment(a.ID, "")
	assert.ErrorIs(t, err, ErrNotApproved)
}

func TestProcessPaymentGeneratesReference(t *testing.T) {
	svc, db := newTestService(t)
	a := seedApproval(t, db, 10)
	_, err := svc.Approve(a.ID, 10)
	require.NoError(t, err)

	out, err := svc.ProcessPayment(a.ID, "")
	require.NoError(t, err)
	assert.Equal(t, PaymentCompleted, out.PaymentStatus)
	assert.Regexp(t, `^PAY-[0-9A-F]{10}$`, out.PaymentReference)
}

func TestProcessPaymentKeepsSuppliedReference(t *testing.T) {
	svc, db := newTestService(t)
	a := seedApproval(t, db, 10)
	_, err := svc.Approve(a.ID, 10)
	require.NoError(t, err)

	out, err := svc.ProcessPayment(a.ID, "BACS-20260830-01")
	require.NoError(t, err)
	assert.Equal(t, "BACS-20260830-01", out.PaymentReference)
}

func TestProcessPaymentTwiceFails(t *testing.T) {
	svc, db := newTestService(t)
	a := seedApproval(t, db, 10)
	_, err := svc.Approve(a.ID, 10)
	require.NoError(t, err)
	_, err = svc.ProcessPayment(a.ID, "")
	require.NoError(t, err)

	_, err = svc.ProcessPayment(a.ID, "")
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestWithdrawRequiresApproval(t *testing.T) {
	svc, db := newTestService(t)
	a := seedApproval(t, db, 10)

	_, err := svc.Withdraw(a.ID, "TRF-1")
	assert.ErrorIs(t, err, ErrNotApproved)
}

func TestWithdrawCompletesPayment(t *testing.T) {
	svc, db := newTestService(t)
	a := seedApproval(t, db, 10)
	_, err := svc.Approve(a.ID, 10)
	require.NoError(t, err)

	entry, err := svc.Withdraw(a.ID, "TRF-8841")
	require.NoError(t, err)
	assert.Equal(t, a.ID, entry.ApprovalID)
	assert.Equal(t, "TRF-8841", entry.TransferReference)

	fresh, err := svc.Repo.FindByID(db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentCompleted, fresh.PaymentStatus)
	assert.Equal(t, "TRF-8841", fresh.PaymentReference)
}

func TestWithdrawIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	a := seedApproval(t, db, 10)
	_, err := svc.Approve(a.ID, 10)
	require.NoError(t, err)

	first, err := svc.Withdraw(a.ID, "TRF-0001")
	require.NoError(t, err)

	// Repeats with any reference return the original entry untouched.
	for i := 0; i < 50; i++ {
		entry, err := svc.Withdraw(a.ID, "TRF-9999")
		require.NoError(t, err)
		assert.Equal(t, first.ID, entry.ID)
		assert.Equal(t, "TRF-0001", entry.TransferReference)
	}

	var count int64
	require.NoError(t, db.Model(&ledger.Entry{}).
		Where("approval_id = ?", a.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
