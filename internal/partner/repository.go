package partner

import (
	"errors"

	"gorm.io/gorm"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/ratetable"
)

type Repository interface {
	Create(db *gorm.DB, p *Partner) error
	FindByID(db *gorm.DB, id uint) (*Partner, error)
	FindByEmail(db *gorm.DB, email string) (*Partner, error)
	List(db *gorm.DB) ([]Partner, error)
	Update(db *gorm.DB, p *Partner) error
	ResolveUpline(db *gorm.DB, referrerID uint) ([]uint, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Create(db *gorm.DB, p *Partner) error {
	return db.Create(p).Error
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Partner, error) {
	var p Partner
	if err := db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repositoryImpl) FindByEmail(db *gorm.DB, email string) (*Partner, error) {
	var p Partner
	if err := db.Where("email = ?", email).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repositoryImpl) List(db *gorm.DB) ([]Partner, error) {
	var list []Partner
	err := db.Order("id ASC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) Update(db *gorm.DB, p *Partner) error {
	return db.Save(p).Error
}

// ResolveUpline walks ReferredByID above the given referrer, at most
// two further levels. The walk is bounded and cycle-safe, so malformed
// referral data can never loop it. Missing links end the walk quietly.
func (r *repositoryImpl) ResolveUpline(db *gorm.DB, referrerID uint) ([]uint, error) {
	var out []uint
	seen := map[uint]bool{referrerID: true}
	current := referrerID
	for len(out) < ratetable.MaxLevels-1 {
		var p Partner
		err := db.Select("id", "referred_by_id").First(&p, current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, err
		}
		if p.ReferredByID == nil {
			break
		}
		next := *p.ReferredByID
		if next == 0 || seen[next] {
			break
		}
		out = append(out, next)
		seen[next] = true
		current = next
	}
	return out, nil
}
