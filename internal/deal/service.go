// internal/deal/service.go
package deal

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/notification"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/ratetable"
)

var (
	ErrDealNotFound      = errors.New("deal not found")
	ErrDealTerminal      = errors.New("deal is in a terminal stage")
	ErrInvalidTransition = errors.New("invalid stage transition")
	ErrInvalidMetadata   = errors.New("invalid stage metadata")
	ErrConflict          = errors.New("deal stage changed concurrently")
)

// SystemCommenter records pipeline-generated history on a deal. The
// comment package provides the implementation; depending on the
// interface here keeps this package free of a comment import.
type SystemCommenter interface {
	AddSystemComment(db *gorm.DB, dealID uint, text string) error
}

// Metadata optionally rides along with a stage advance. Informational
// only; neither field gates the transition.
type Metadata struct {
	ProductType         ProductType
	QuoteDeliveryMethod QuoteDeliveryMethod
}

// Service owns deal lifecycle rules: submission and the Advance state
// machine. It knows nothing about money beyond the rate-table estimate.
type Service struct {
	DB       *gorm.DB
	Repo     Repository
	Comments SystemCommenter
	Notifier *notification.Notifier
}

func NewService(db *gorm.DB, repo Repository, comments SystemCommenter, notifier *notification.Notifier) *Service {
	return &Service{DB: db, Repo: repo, Comments: comments, Notifier: notifier}
}

// SubmitInput is what a partner provides when creating a deal.
type SubmitInput struct {
	BusinessName        string
	ContactName         string
	ContactEmail        string
	ContactPhone        string
	ProductType         ProductType
	QuoteDeliveryMethod QuoteDeliveryMethod
	BusinessCategory    string
	MonthlyVolume       *money.Money
	Notes               string
}

// Submit creates a deal in the initial stage. When a category and
// volume are supplied the rate table seeds the estimated commission.
func (s *Service) Submit(in SubmitInput, referrerID uint) (*Deal, error) {
	d := &Deal{
		DealRef:             newDealRef(),
		BusinessName:        in.BusinessName,
		ContactName:         in.ContactName,
		ContactEmail:        in.ContactEmail,
		ContactPhone:        in.ContactPhone,
		ProductType:         in.ProductType,
		QuoteDeliveryMethod: in.QuoteDeliveryMethod,
		BusinessCategory:    in.BusinessCategory,
		MonthlyVolume:       in.MonthlyVolume,
		Stage:               StageQuoteRequestReceived,
		SubmittedAt:         time.Now(),
		Notes:               in.Notes,
		ReferrerID:          referrerID,
	}

	if in.BusinessCategory != "" && in.MonthlyVolume != nil {
		est, err := ratetable.BaseCommission(ratetable.Category(in.BusinessCategory), *in.MonthlyVolume)
		if err == nil {
			d.EstimatedCommission = est
		}
	}

	if err := s.Repo.Save(s.DB, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Advance moves a deal to the next canonical stage, or to declined from
// any non-terminal stage. The write is conditioned on the stage read at
// the start of the attempt; a lost race gets one retry against the
// fresh stage, then surfaces as ErrConflict. Every successful move
// appends an immutable audit row.
func (s *Service) Advance(dealID uint, target Stage, meta Metadata, actorID uint, notes string) (*Deal, error) {
	if !target.Valid() || target == StageQuoteRequestReceived {
		return nil, fmt.Errorf("%w: unknown target %q", ErrInvalidTransition, target)
	}

	for attempt := 0; attempt < 2; attempt++ {
		d, err := s.Repo.FindByID(s.DB, dealID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDealNotFound
			}
			return nil, err
		}
		if d.Stage.Terminal() {
			return nil, ErrDealTerminal
		}
		if !CanTransition(d.Stage, target) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Stage, target)
		}

		updates := map[string]interface{}{}
		if meta.ProductType != "" {
			if !meta.ProductType.Valid() {
				return nil, fmt.Errorf("%w: unknown product type %q", ErrInvalidMetadata, meta.ProductType)
			}
			updates["product_type"] = meta.ProductType
		}
		if meta.QuoteDeliveryMethod != "" {
			if !meta.QuoteDeliveryMethod.Valid() {
				return nil, fmt.Errorf("%w: unknown quote delivery method %q", ErrInvalidMetadata, meta.QuoteDeliveryMethod)
			}
			updates["quote_delivery_method"] = meta.QuoteDeliveryMethod
		}

		rows, err := s.Repo.UpdateStageIf(s.DB, dealID, d.Stage, target, updates)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			// Someone else moved the deal between our read and write.
			continue
		}

		audit := &StageAudit{
			DealID:    dealID,
			FromStage: d.Stage,
			ToStage:   target,
			ActorID:   actorID,
			Notes:     notes,
		}
		if err := s.Repo.AppendAudit(s.DB, audit); err != nil {
			return nil, err
		}

		if s.Comments != nil {
			text := fmt.Sprintf("Stage changed from %s to %s", d.Stage, target)
			if err := s.Comments.AddSystemComment(s.DB, dealID, text); err != nil {
				// The audit row is the record that matters.
				log.Printf("deal: system comment for %d: %v", dealID, err)
			}
		}
		s.Notifier.DealStageChanged(dealID, string(d.Stage), string(target))

		return s.Repo.FindByID(s.DB, dealID)
	}
	return nil, ErrConflict
}

// AuditTrail returns the append-only transition history for a deal.
func (s *Service) AuditTrail(dealID uint) ([]StageAudit, error) {
	if _, err := s.Repo.FindByID(s.DB, dealID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, err
	}
	return s.Repo.ListAudit(s.DB, dealID)
}

func newDealRef() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("DEAL-%s-%s", time.Now().Format("2006"), suffix)
}
