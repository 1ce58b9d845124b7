package breakdown

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/approval"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/deal"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
)

// staticUpline serves a fixed inviter chain.
type staticUpline struct {
	chain []uint
}

func (s staticUpline) ResolveUpline(*gorm.DB, uint) ([]uint, error) {
	return s.chain, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, deal.Migrate(db))
	require.NoError(t, approval.Migrate(db))
	return db
}

func newTestService(t *testing.T, upline []uint) (*Service, *gorm.DB) {
	db := newTestDB(t)
	svc := NewService(db, deal.NewRepository(), staticUpline{chain: upline}, approval.NewRepository(), nil)
	return svc, db
}

var dealRefSeq atomic.Int64

func seedDealAtStage(t *testing.T, db *gorm.DB, referrerID uint, stage deal.Stage) *deal.Deal {
	t.Helper()
	d := &deal.Deal{
		DealRef:      fmt.Sprintf("DEAL-2026-%08d", dealRefSeq.Add(1)),
		BusinessName: "Corner Bakery",
		Stage:        stage,
		SubmittedAt:  time.Now(),
		ReferrerID:   referrerID,
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

func seedDeal(t *testing.T, db *gorm.DB, referrerID uint) *deal.Deal {
	t.Helper()
	return seedDealAtStage(t, db, referrerID, deal.StageApproved)
}

func mustParse(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.Parse(s)
	require.NoError(t, err)
	return m
}

func TestCalculateSoloPartnerGetsSingleLine(t *testing.T) {
	svc, db := newTestService(t, nil)
	d := seedDeal(t, db, 10)

	b, err := svc.Calculate(d.ID, money.FromPounds(1000))
	require.NoError(t, err)

	require.Len(t, b.Lines, 1)
	assert.Equal(t, 1, b.Lines[0].Level)
	assert.Equal(t, uint(10), b.Lines[0].RecipientID)
	assert.Equal(t, "Direct Referrer", b.Lines[0].Role)
	assert.Equal(t, "600.00", b.Lines[0].FinalAmount.String())

	// The unallocated upline share stays visible as remainder.
	assert.Equal(t, "400.00", b.RoundingRemainder.String())
	assert.Equal(t, b.TotalPayable, b.TotalDistributed.Add(b.RoundingRemainder))
}

func TestCalculateFullChainRoundsToPence(t *testing.T) {
	svc, db := newTestService(t, []uint{20, 30})
	d := seedDeal(t, db, 10)

	b, err := svc.Calculate(d.ID, mustParse(t, "333.33"))
	require.NoError(t, err)

	require.Len(t, b.Lines, 3)
	assert.Equal(t, "200.00", b.Lines[0].AutoAmount.String())
	assert.Equal(t, "66.67", b.Lines[1].AutoAmount.String())
	assert.Equal(t, "33.33", b.Lines[2].AutoAmount.String())
	assert.Equal(t, "33.33", b.RoundingRemainder.String())

	var sum money.Money
	for _, l := range b.Lines {
		sum = sum.Add(l.AutoAmount)
	}
	assert.Equal(t, b.TotalPayable, sum.Add(b.RoundingRemainder))
}

func TestCalculateCapsChainAtThreeLevels(t *testing.T) {
	svc, db := newTestService(t, []uint{20, 30, 40, 50})
	d := seedDeal(t, db, 10)

	b, err := svc.Calculate(d.ID, money.FromPounds(100))
	require.NoError(t, err)
	require.Len(t, b.Lines, 3)
	assert.Equal(t, uint(30), b.Lines[2].RecipientID)
}

func TestCalculateRejectsNonPositiveTotal(t *testing.T) {
	svc, db := newTestService(t, nil)
	d := seedDeal(t, db, 10)

	_, err := svc.Calculate(d.ID, money.Money(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.Calculate(d.ID, money.FromPence(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCalculateRequiresEligibleStage(t *testing.T) {
	svc, db := newTestService(t, []uint{20, 30})

	for _, stage := range []deal.Stage{
		deal.StageQuoteRequestReceived,
		deal.StageQuoteSent,
		deal.StageSignedAwaitingDocs,
		deal.StageDeclined,
	} {
		d := seedDealAtStage(t, db, 10, stage)
		_, err := svc.Calculate(d.ID, money.FromPounds(1000))
		assert.ErrorIs(t, err, ErrStageNotEligible, "stage %s", stage)
	}

	// Approved and later stages go through.
	for _, stage := range []deal.Stage{
		deal.StageApproved,
		deal.StageInvoiceReceived,
		deal.StageCompleted,
	} {
		d := seedDealAtStage(t, db, 10, stage)
		_, err := svc.Calculate(d.ID, money.FromPounds(1000))
		assert.NoError(t, err, "stage %s", stage)
	}
}

func TestFinalizeRequiresEligibleStage(t *testing.T) {
	svc, db := newTestService(t, []uint{20, 30})
	d := seedDealAtStage(t, db, 10, deal.StageQuoteRequestReceived)

	b := &Breakdown{
		DealID:       d.ID,
		TotalPayable: money.FromPounds(1000),
		Lines: []CommissionLine{
			{Level: 1, RecipientID: 10, Percentage: 60, AutoAmount: money.FromPounds(600), FinalAmount: money.FromPounds(600)},
		},
	}

	_, err := svc.Finalize(d.ID, b, "")
	assert.ErrorIs(t, err, ErrStageNotEligible)

	// Nothing may be written for an ineligible deal.
	var count int64
	require.NoError(t, db.Model(&approval.CommissionApproval{}).
		Where("deal_id = ?", d.ID).Count(&count).Error)
	assert.Zero(t, count)

	var fresh deal.Deal
	require.NoError(t, db.First(&fresh, d.ID).Error)
	assert.Nil(t, fresh.ActualCommission)
}

func TestCalculateMissingDeal(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Calculate(999, money.FromPounds(100))
	assert.ErrorIs(t, err, deal.ErrDealNotFound)
}

func TestApplyOverrideLeavesOtherLinesAlone(t *testing.T) {
	svc, db := newTestService(t, []uint{20, 30})
	d := seedDeal(t, db, 10)

	b, err := svc.Calculate(d.ID, money.FromPounds(1000))
	require.NoError(t, err)

	require.NoError(t, ApplyOverride(b, 2, mustParse(t, "250.00")))

	assert.Equal(t, "600.00", b.Lines[0].FinalAmount.String())
	assert.Equal(t, "250.00", b.Lines[1].FinalAmount.String())
	assert.Equal(t, "100.00", b.Lines[2].FinalAmount.String())
	assert.True(t, b.Lines[1].Overridden)
	assert.False(t, b.Lines[0].Overridden)

	// Auto amounts survive as the audit baseline.
	assert.Equal(t, "200.00", b.Lines[1].AutoAmount.String())

	// The distributed total follows the override; the payable total
	// does not.
	assert.Equal(t, "950.00", b.TotalDistributed.String())
	assert.Equal(t, "1000.00", b.TotalPayable.String())
}

func TestApplyOverrideZeroIsAllowed(t *testing.T) {
	svc, db := newTestService(t, []uint{20})
	d := seedDeal(t, db, 10)

	b, err := svc.Calculate(d.ID, money.FromPounds(100))
	require.NoError(t, err)

	require.NoError(t, ApplyOverride(b, 2, money.Money(0)))
	assert.Equal(t, "0.00", b.Lines[1].FinalAmount.String())
}

func TestApplyOverrideRejectsNegative(t *testing.T) {
	b := &Breakdown{Lines: []CommissionLine{{Level: 1}}}
	assert.ErrorIs(t, ApplyOverride(b, 1, money.FromPence(-1)), ErrNegativeOverride)
}

func TestApplyOverrideUnknownLevel(t *testing.T) {
	b := &Breakdown{Lines: []CommissionLine{{Level: 1}}}
	assert.ErrorIs(t, ApplyOverride(b, 3, money.FromPounds(1)), ErrLevelNotFound)
}

func TestFinalizeWritesApprovalsAndDeal(t *testing.T) {
	svc, db := newTestService(t, []uint{20, 30})
	d := seedDeal(t, db, 10)

	b, err := svc.Calculate(d.ID, money.FromPounds(1000))
	require.NoError(t, err)

	approvals, err := svc.Finalize(d.ID, b, "INV-77104")
	require.NoError(t, err)
	require.Len(t, approvals, 3)

	for _, a := range approvals {
		assert.Equal(t, approval.StatusPending, a.ApprovalStatus)
		assert.Equal(t, approval.PaymentPending, a.PaymentStatus)
		assert.NotZero(t, a.ID)
	}

	var fresh deal.Deal
	require.NoError(t, db.First(&fresh, d.ID).Error)
	require.NotNil(t, fresh.ActualCommission)
	assert.Equal(t, "1000.00", fresh.ActualCommission.String())
	assert.Equal(t, "INV-77104", fresh.CommissionRef)
}

func TestFinalizeIsIdempotentPerDeal(t *testing.T) {
	svc, db := newTestService(t, []uint{20})
	d := seedDeal(t, db, 10)

	b, err := svc.Calculate(d.ID, money.FromPounds(500))
	require.NoError(t, err)

	_, err = svc.Finalize(d.ID, b, "INV-1")
	require.NoError(t, err)

	_, err = svc.Finalize(d.ID, b, "INV-2")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	// The second attempt must not add lines or touch the deal.
	var count int64
	require.NoError(t, db.Model(&approval.CommissionApproval{}).
		Where("deal_id = ?", d.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	var fresh deal.Deal
	require.NoError(t, db.First(&fresh, d.ID).Error)
	assert.Equal(t, "INV-1", fresh.CommissionRef)
}

func TestFinalizeRejectsMismatchedDeal(t *testing.T) {
	svc, db := newTestService(t, nil)
	d := seedDeal(t, db, 10)

	b, err := svc.Calculate(d.ID, money.FromPounds(100))
	require.NoError(t, err)

	_, err = svc.Finalize(d.ID+1, b, "")
	assert.ErrorIs(t, err, ErrDealMismatch)
}

func TestFinalizePersistsOverriddenAmounts(t *testing.T) {
	svc, db := newTestService(t, []uint{20})
	d := seedDeal(t, db, 10)

	b, err := svc.Calculate(d.ID, money.FromPounds(1000))
	require.NoError(t, err)
	require.NoError(t, ApplyOverride(b, 2, mustParse(t, "350.00")))

	approvals, err := svc.Finalize(d.ID, b, "")
	require.NoError(t, err)
	require.Len(t, approvals, 2)

	assert.Equal(t, "200.00", approvals[1].AutoAmount.String())
	assert.Equal(t, "350.00", approvals[1].FinalAmount.String())
	assert.True(t, approvals[1].Overridden)
}
