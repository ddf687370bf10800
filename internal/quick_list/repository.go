package quick_list

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuickListRepository interface {
	Create(item *QuickListItem) error
	FindByID(id uuid.UUID) (*QuickListItem, error)
	ListByUser(userID uuid.UUID) ([]*QuickListItem, error)
	Update(item *QuickListItem) error
	Delete(id uuid.UUID) error
}

type quickListRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) QuickListRepository {
	return &quickListRepository{db: db}
}

func (r *quickListRepository) Create(item *QuickListItem) error {
	return r.db.Create(item).Error
}

func (r *quickListRepository) FindByID(id uuid.UUID) (*QuickListItem, error) {
	var item QuickListItem
	if err := r.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *quickListRepository) ListByUser(userID uuid.UUID) ([]*QuickListItem, error) {
	var items []*QuickListItem
	if err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *quickListRepository) Update(item *QuickListItem) error {
	return r.db.Save(item).Error
}

func (r *quickListRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&QuickListItem{}, "id = ?", id).Error
}
