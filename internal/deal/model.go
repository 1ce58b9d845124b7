// internal/deal/model.go
package deal

import (
	"time"

	"gorm.io/gorm"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
)

// Deal is a business referral submitted by a partner, moving through
// the pipeline. Deals are never deleted; they end in a terminal stage.
type Deal struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	// Human-readable reference, e.g. "DEAL-2026-0042".
	DealRef string `gorm:"size:50;uniqueIndex" json:"dealRef"`

	BusinessName string `gorm:"size:255;not null" json:"businessName"`
	ContactName  string `gorm:"size:255" json:"contactName"`
	ContactEmail string `gorm:"size:255" json:"contactEmail"`
	ContactPhone string `gorm:"size:50" json:"contactPhone"`

	ProductType         ProductType         `gorm:"size:50" json:"productType"`
	QuoteDeliveryMethod QuoteDeliveryMethod `gorm:"size:20" json:"quoteDeliveryMethod"`
	BusinessCategory    string              `gorm:"size:50" json:"businessCategory"`

	MonthlyVolume       *money.Money `json:"monthlyVolume,omitempty"`
	EstimatedCommission money.Money  `gorm:"not null;default:0" json:"estimatedCommission"`

	// ActualCommission is written exactly once, by Finalize, and is
	// immutable once a payout ledger entry exists against the deal.
	ActualCommission *money.Money `json:"actualCommission,omitempty"`

	// CommissionRef is the optional reference supplied at Finalize.
	CommissionRef string `gorm:"size:100" json:"commissionRef,omitempty"`

	Stage       Stage     `gorm:"size:50;not null;default:'quote_request_received';index" json:"stage"`
	SubmittedAt time.Time `gorm:"not null" json:"submittedAt"`

	Notes      string `gorm:"type:text" json:"notes"`
	AdminNotes string `gorm:"type:text" json:"adminNotes"`

	// The submitting partner. Upline levels are resolved at calculation
	// time, never stored here.
	ReferrerID uint `gorm:"not null;index" json:"referrerId"`

	StageAudits []StageAudit `gorm:"foreignKey:DealID" json:"stageAudits,omitempty"`
}

// StageAudit is one immutable record of a pipeline transition. Rows are
// append-only; there is no update path and no soft delete.
type StageAudit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DealID    uint      `gorm:"not null;index" json:"dealId"`
	FromStage Stage     `gorm:"size:50;not null" json:"from"`
	ToStage   Stage     `gorm:"size:50;not null" json:"to"`
	ActorID   uint      `gorm:"not null" json:"actorId"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}

// Migrate creates the deal tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Deal{}, &StageAudit{})
}
