// internal/ledger/repository.go
package ledger

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository encapsulates payout ledger access.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Record inserts a ledger entry for the approval unless one already
// exists. Returns the entry now on record and whether this call created
// it. ON CONFLICT DO NOTHING keeps the check-then-act race out of
// application code.
func (r *Repository) Record(db *gorm.DB, approvalID uint, transferReference string) (*Entry, bool, error) {
	e := &Entry{
		ApprovalID:        approvalID,
		TransferReference: transferReference,
		WithdrawnAt:       time.Now(),
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "approval_id"}},
		DoNothing: true,
	}).Create(e)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindByApprovalID(db, approvalID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return e, true, nil
}

// FindByApprovalID loads the entry for one approval.
func (r *Repository) FindByApprovalID(db *gorm.DB, approvalID uint) (*Entry, error) {
	var e Entry
	if err := db.Where("approval_id = ?", approvalID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns all entries, newest first.
func (r *Repository) List(db *gorm.DB) ([]Entry, error) {
	var list []Entry
	err := db.Order("withdrawn_at DESC").Find(&list).Error
	return list, err
}
