// internal/approval/repository.go
package approval

import (
	"gorm.io/gorm"
)

// Repository encapsulates commission approval persistence.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// CreateBatch inserts approval rows in one shot (ignores empty input).
func (r *Repository) CreateBatch(db *gorm.DB, approvals []*CommissionApproval) error {
	if len(approvals) == 0 {
		return nil
	}
	return db.Create(approvals).Error
}

func (r *Repository) FindByID(db *gorm.DB, id uint) (*CommissionApproval, error) {
	var a CommissionApproval
	if err := db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) ListByDeal(db *gorm.DB, dealID uint) ([]CommissionApproval, error) {
	var list []CommissionApproval
	err := db.
		Where("deal_id = ?", dealID).
		Order("level ASC").
		Find(&list).Error
	return list, err
}

func (r *Repository) ListByRecipient(db *gorm.DB, recipientID uint) ([]CommissionApproval, error) {
	var list []CommissionApproval
	err := db.
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *Repository) CountByDeal(db *gorm.DB, dealID uint) (int64, error) {
	var count int64
	err := db.Model(&CommissionApproval{}).
		Where("deal_id = ?", dealID).
		Count(&count).Error
	return count, err
}

// DecideIf records an approve/reject only while the row is still
// pending; the returned row count exposes a lost race.
func (r *Repository) DecideIf(db *gorm.DB, id uint, status string, updates map[string]interface{}) (int64, error) {
	updates["approval_status"] = status
	res := db.Model(&CommissionApproval{}).
		Where("id = ? AND approval_status = ?", id, StatusPending).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// CompletePaymentIf marks the payment done only while it is approved
// and unpaid.
func (r *Repository) CompletePaymentIf(db *gorm.DB, id uint, reference string) (int64, error) {
	res := db.Model(&CommissionApproval{}).
		Where("id = ? AND approval_status = ? AND payment_status = ?",
			id, StatusApproved, PaymentPending).
		Updates(map[string]interface{}{
			"payment_status":    PaymentCompleted,
			"payment_reference": reference,
		})
	return res.RowsAffected, res.Error
}
