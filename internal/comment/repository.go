package comment

import "gorm.io/gorm"

// Repository encapsulates comment persistence. It also satisfies the
// deal service's SystemCommenter interface.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Create(db *gorm.DB, c *Comment) error {
	return db.Create(c).Error
}

func (r *Repository) ListByDeal(db *gorm.DB, dealID uint) ([]Comment, error) {
	var list []Comment
	err := db.
		Where("deal_id = ?", dealID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// AddSystemComment writes a pipeline-generated history entry.
func (r *Repository) AddSystemComment(db *gorm.DB, dealID uint, text string) error {
	return r.Create(db, &Comment{
		Text:   text,
		DealID: dealID,
		System: true,
	})
}
