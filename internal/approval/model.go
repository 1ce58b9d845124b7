// internal/approval/model.go
package approval

import (
	"time"

	"gorm.io/gorm"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
)

// Approval decision states. Terminal once decided; a reject cannot be
// reopened into an approve.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Payment states. One-way: pending → completed.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

// CommissionApproval wraps one commission line with its workflow state.
// The composite unique index on (deal_id, level) is the persistence
// guard behind Finalize's idempotency: a second finalize cannot insert
// duplicate lines no matter how the race falls.
type CommissionApproval struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	DealID uint `gorm:"not null;index;uniqueIndex:idx_approval_deal_level" json:"dealId"`
	Level  int  `gorm:"not null;uniqueIndex:idx_approval_deal_level" json:"level"`

	RecipientID uint   `gorm:"not null;index" json:"recipientId"`
	Role        string `gorm:"size:50;not null" json:"role"`
	Percentage  int64  `gorm:"not null" json:"percentage"`

	AutoAmount  money.Money `gorm:"not null;default:0" json:"autoAmount"`
	FinalAmount money.Money `gorm:"not null;default:0" json:"finalAmount"`
	Overridden  bool        `gorm:"not null;default:false" json:"overridden"`

	ApprovalStatus string `gorm:"size:20;not null;default:'pending';index" json:"approvalStatus"`
	PaymentStatus  string `gorm:"size:20;not null;default:'pending'" json:"paymentStatus"`

	// PaymentReference is set once, by ProcessPayment or Withdraw.
	PaymentReference string     `gorm:"size:100" json:"paymentReference,omitempty"`
	DecidedAt        *time.Time `json:"decidedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Migrate creates the commission approvals table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&CommissionApproval{})
}
