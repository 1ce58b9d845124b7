// internal/ledger/model.go
package ledger

import (
	"time"

	"gorm.io/gorm"
)

// Entry records that a commission approval was paid out. The unique
// index on ApprovalID is what makes Withdraw idempotent: the database,
// not application code, arbitrates concurrent retries.
type Entry struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ApprovalID        uint      `gorm:"not null;uniqueIndex" json:"approvalId"`
	TransferReference string    `gorm:"size:100" json:"transferReference,omitempty"`
	WithdrawnAt       time.Time `gorm:"not null" json:"withdrawnAt"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Migrate creates the payout ledger table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Entry{})
}
