// internal/breakdown/service.go
package breakdown

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/approval"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/deal"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/notification"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/ratetable"
)

var (
	ErrInvalidAmount    = errors.New("total payable amount must be positive")
	ErrNegativeOverride = errors.New("override amount cannot be negative")
	ErrNoReferrerChain  = errors.New("deal has no referrer to pay")
	ErrLevelNotFound    = errors.New("breakdown has no line at that level")
	ErrAlreadyFinalized = errors.New("deal commission has already been finalized")
	ErrDealMismatch     = errors.New("breakdown does not belong to this deal")
	ErrStageNotEligible = errors.New("deal has not reached a commission-eligible stage")
)

// UplineResolver looks up the inviter chain above a referrer, bounded
// at two further levels. The partner package provides the real
// implementation; the calculator treats it as opaque.
type UplineResolver interface {
	ResolveUpline(db *gorm.DB, referrerID uint) ([]uint, error)
}

// Service computes commission breakdowns and finalizes them into
// approval rows. Calculation is pure; Finalize is the single write
// boundary.
type Service struct {
	DB        *gorm.DB
	Deals     deal.Repository
	Upline    UplineResolver
	Approvals *approval.Repository
	Notifier  *notification.Notifier
}

func NewService(db *gorm.DB, deals deal.Repository, upline UplineResolver, approvals *approval.Repository, notifier *notification.Notifier) *Service {
	return &Service{DB: db, Deals: deals, Upline: upline, Approvals: approvals, Notifier: notifier}
}

// Calculate resolves the referral chain for a deal and splits the total
// across the present levels using the fixed override percentages.
// Missing upline levels simply produce no line. The deal must have
// reached a commission-eligible stage (approved or later).
func (s *Service) Calculate(dealID uint, totalPayable money.Money) (*Breakdown, error) {
	if !totalPayable.IsPositive() {
		return nil, ErrInvalidAmount
	}

	d, err := s.Deals.FindByID(s.DB, dealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, deal.ErrDealNotFound
		}
		return nil, err
	}
	if !d.Stage.CommissionEligible() {
		return nil, fmt.Errorf("%w: %s", ErrStageNotEligible, d.Stage)
	}
	if d.ReferrerID == 0 {
		return nil, ErrNoReferrerChain
	}

	recipients := []uint{d.ReferrerID}
	upline, err := s.Upline.ResolveUpline(s.DB, d.ReferrerID)
	if err != nil {
		return nil, fmt.Errorf("resolve upline: %w", err)
	}
	for _, id := range upline {
		if id != 0 && len(recipients) < ratetable.MaxLevels {
			recipients = append(recipients, id)
		}
	}

	b := &Breakdown{
		DealID:       dealID,
		TotalPayable: totalPayable,
	}
	var distributed money.Money
	for i, recipientID := range recipients {
		level := i + 1
		pct := ratetable.LevelPercents[i]
		auto := totalPayable.MulPercent(pct)
		b.Lines = append(b.Lines, CommissionLine{
			Level:       level,
			RecipientID: recipientID,
			Role:        roleForLevel(level),
			Percentage:  pct,
			AutoAmount:  auto,
			FinalAmount: auto,
		})
		distributed += auto
	}
	b.TotalDistributed = distributed
	b.RoundingRemainder = totalPayable - distributed
	return b, nil
}

// ApplyOverride replaces one line's final amount with a manual value.
// Pure over the in-memory breakdown; no other line is touched and no
// recalculation against the original total happens. Zero is a valid
// override ("pay nothing at this level"); negatives are rejected.
func ApplyOverride(b *Breakdown, level int, amount money.Money) error {
	if amount.IsNegative() {
		return ErrNegativeOverride
	}
	for i := range b.Lines {
		if b.Lines[i].Level == level {
			b.Lines[i].Overridden = true
			b.Lines[i].FinalAmount = amount
			b.recalc()
			return nil
		}
	}
	return ErrLevelNotFound
}

// Finalize persists the breakdown: the deal's actual commission is set
// to the original payable total (which may legitimately differ from the
// distributed sum), and one approval row is created per line. The write
// is idempotent per deal: the set-once actual_commission column and
// the unique (deal_id, level) index both refuse a second run, so a
// repeat call fails with ErrAlreadyFinalized instead of duplicating
// lines.
func (s *Service) Finalize(dealID uint, b *Breakdown, reference string) ([]*approval.CommissionApproval, error) {
	if b.DealID != dealID {
		return nil, ErrDealMismatch
	}
	if len(b.Lines) == 0 {
		return nil, ErrNoReferrerChain
	}
	if !b.TotalPayable.IsPositive() {
		return nil, ErrInvalidAmount
	}
	for _, l := range b.Lines {
		if l.FinalAmount.IsNegative() {
			return nil, ErrNegativeOverride
		}
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	d, err := s.Deals.FindByID(tx, dealID)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, deal.ErrDealNotFound
		}
		return nil, err
	}
	if !d.Stage.CommissionEligible() {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%w: %s", ErrStageNotEligible, d.Stage)
	}
	if d.ActualCommission != nil {
		_ = tx.Rollback()
		return nil, ErrAlreadyFinalized
	}
	count, err := s.Approvals.CountByDeal(tx, dealID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if count > 0 {
		_ = tx.Rollback()
		return nil, ErrAlreadyFinalized
	}

	approvals := make([]*approval.CommissionApproval, 0, len(b.Lines))
	for _, l := range b.Lines {
		approvals = append(approvals, &approval.CommissionApproval{
			DealID:         dealID,
			Level:          l.Level,
			RecipientID:    l.RecipientID,
			Role:           l.Role,
			Percentage:     l.Percentage,
			AutoAmount:     l.AutoAmount,
			FinalAmount:    l.FinalAmount,
			Overridden:     l.Overridden,
			ApprovalStatus: approval.StatusPending,
			PaymentStatus:  approval.PaymentPending,
		})
	}
	if err := s.Approvals.CreateBatch(tx, approvals); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyFinalized
		}
		return nil, err
	}

	res := tx.Model(&deal.Deal{}).
		Where("id = ? AND actual_commission IS NULL", dealID).
		Updates(map[string]interface{}{
			"actual_commission": b.TotalPayable,
			"commission_ref":    reference,
		})
	if res.Error != nil {
		_ = tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost a race with a concurrent finalize.
		_ = tx.Rollback()
		return nil, ErrAlreadyFinalized
	}

	if err := tx.Commit().Error; err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	for _, a := range approvals {
		s.Notifier.CommissionReady(a.ID, a.RecipientID, a.FinalAmount.String())
	}
	return approvals, nil
}
