package partner

import (
	"gorm.io/gorm"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/deal"
)

// Partner is a referral partner account. ReferredByID points at the
// partner who invited this one; following it twice yields the upline
// levels used by the commission calculator.
type Partner struct {
	gorm.Model
	FirstName          string      `gorm:"size:100;not null" json:"firstName"`
	LastName           string      `gorm:"size:100" json:"lastName"`
	Email              string      `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone              string      `gorm:"size:50" json:"phone"`
	Password           string      `gorm:"size:255;not null" json:"-"`
	IsAdmin            bool        `gorm:"default:false" json:"isAdmin"`
	NeedsPasswordReset bool        `json:"-"`
	ReferredByID       *uint       `gorm:"index" json:"referredById,omitempty"`
	Deals              []deal.Deal `gorm:"foreignKey:ReferrerID" json:"deals,omitempty"`
}

// Migrate creates the partners table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Partner{})
}
