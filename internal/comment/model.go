package comment

import "gorm.io/gorm"

// Comment is a free-text note or a system history entry on a deal.
type Comment struct {
	gorm.Model
	Text     string `gorm:"type:text;not null" json:"text"`
	DealID   uint   `gorm:"not null;index" json:"dealId"`
	AuthorID uint   `json:"authorId"` // 0 for system entries

	// System marks entries generated by the pipeline itself.
	System bool `gorm:"default:false" json:"system"`
}

// Migrate creates the comments table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Comment{})
}
