// internal/deal/repository.go
package deal

import (
	"gorm.io/gorm"
)

type Repository interface {
	Save(db *gorm.DB, d *Deal) error
	FindByID(db *gorm.DB, id uint) (*Deal, error)
	List(db *gorm.DB) ([]Deal, error)
	ListByReferrer(db *gorm.DB, referrerID uint) ([]Deal, error)
	ListByStage(db *gorm.DB, stage Stage) ([]Deal, error)
	// UpdateStageIf moves the deal only when its stage still equals
	// expected; returns the number of rows changed so callers can
	// detect a lost race.
	UpdateStageIf(db *gorm.DB, id uint, expected, target Stage, updates map[string]interface{}) (int64, error)
	AppendAudit(db *gorm.DB, a *StageAudit) error
	ListAudit(db *gorm.DB, dealID uint) ([]StageAudit, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Save(db *gorm.DB, d *Deal) error {
	return db.Save(d).Error
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Deal, error) {
	var d Deal
	if err := db.First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repositoryImpl) List(db *gorm.DB) ([]Deal, error) {
	var list []Deal
	err := db.Order("submitted_at DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) ListByReferrer(db *gorm.DB, referrerID uint) ([]Deal, error) {
	var list []Deal
	err := db.
		Where("referrer_id = ?", referrerID).
		Order("submitted_at DESC").
		Find(&list).Error
	return list, err
}

func (r *repositoryImpl) ListByStage(db *gorm.DB, stage Stage) ([]Deal, error) {
	var list []Deal
	err := db.Where("stage = ?", stage).Find(&list).Error
	return list, err
}

func (r *repositoryImpl) UpdateStageIf(db *gorm.DB, id uint, expected, target Stage, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["stage"] = target
	res := db.Model(&Deal{}).
		Where("id = ? AND stage = ?", id, expected).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repositoryImpl) AppendAudit(db *gorm.DB, a *StageAudit) error {
	return db.Create(a).Error
}

func (r *repositoryImpl) ListAudit(db *gorm.DB, dealID uint) ([]StageAudit, error) {
	var list []StageAudit
	err := db.
		Where("deal_id = ?", dealID).
		Order("id ASC").
		Find(&list).Error
	return list, err
}
