// internal/approval/service.go
package approval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/ledger"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/notification"
)

var (
	ErrApprovalNotFound = errors.New("approval not found")
	ErrForbidden        = errors.New("actor is not the line recipient")
	ErrAlreadyDecided   = errors.New("approval has already been decided")
	ErrNotApproved      = errors.New("approval is not in the approved state")
	ErrAlreadyPaid      = errors.New("payment has already been processed")
)

// Service owns the per-line workflow: the recipient's approve/reject
// decision, admin payment processing, and the idempotent withdraw path
// into the payout ledger.
type Service struct {
	DB       *gorm.DB
	Repo     *Repository
	Ledger   *ledger.Repository
	Notifier *notification.Notifier
}

func NewService(db *gorm.DB, repo *Repository, ledgerRepo *ledger.Repository, notifier *notification.Notifier) *Service {
	return &Service{DB: db, Repo: repo, Ledger: ledgerRepo, Notifier: notifier}
}

// Approve records the recipient's acceptance. Decisions are not
// idempotent: re-deciding a non-pending approval is ErrAlreadyDecided,
// because a reject-then-approve must be an explicit, auditable action
// and that flow is unsupported.
func (s *Service) Approve(id, actorID uint) (*CommissionApproval, error) {
	return s.decide(id, actorID, StatusApproved)
}

// Reject records the recipient's refusal. Terminal.
func (s *Service) Reject(id, actorID uint) (*CommissionApproval, error) {
	return s.decide(id, actorID, StatusRejected)
}

func (s *Service) decide(id, actorID uint, status string) (*CommissionApproval, error) {
	a, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if a.RecipientID != actorID {
		return nil, ErrForbidden
	}
	if a.ApprovalStatus != StatusPending {
		return nil, ErrAlreadyDecided
	}

	rows, err := s.Repo.DecideIf(s.DB, id, status, map[string]interface{}{
		"decided_at": gorm.Expr("CURRENT_TIMESTAMP"),
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAlreadyDecided
	}
	return s.load(id)
}

// ProcessPayment marks an approved line as paid. Generates a display
// reference when none is supplied; the reference identifies the payment
// in the UI, it is not a security token.
func (s *Service) ProcessPayment(id uint, reference string) (*CommissionApproval, error) {
	a, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if a.ApprovalStatus != StatusApproved {
		return nil, ErrNotApproved
	}
	if a.PaymentStatus == PaymentCompleted {
		return nil, ErrAlreadyPaid
	}

	if strings.TrimSpace(reference) == "" {
		reference = newPaymentReference()
	}
	rows, err := s.Repo.CompletePaymentIf(s.DB, id, reference)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAlreadyPaid
	}

	s.Notifier.PaymentProcessed(id, reference)
	return s.load(id)
}

// Withdraw is the admin-facing "mark as paid" used for transfers made
// outside the payment provider. Idempotent: a repeat call returns the
// original ledger entry untouched, so UI double-clicks and client
// retries are harmless.
func (s *Service) Withdraw(id uint, transferReference string) (*ledger.Entry, error) {
	a, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if a.ApprovalStatus != StatusApproved {
		return nil, ErrNotApproved
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

	entry, created, err := s.Ledger.Record(tx, id, transferReference)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if created {
		if _, err := s.Repo.CompletePaymentIf(tx, id, entry.TransferReference); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if created {
		s.Notifier.CommissionWithdrawn(id, entry.TransferReference)
	}
	return entry, nil
}

func (s *Service) load(id uint) (*CommissionApproval, error) {
	a, err := s.Repo.FindByID(s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApprovalNotFound
		}
		return nil, err
	}
	return a, nil
}

func newPaymentReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return fmt.Sprintf("PAY-%s", suffix)
}
