package membership

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Create stores the relation, silently succeeding when the pair already
	// exists. Accepting the same invitation twice must not fail.
	Create(a, b uuid.UUID) error
	Exists(a, b uuid.UUID) (bool, error)
	ListPartnerIDs(userID uuid.UUID) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(a, b uuid.UUID) error {
	tm := NewTeamMember(a, b)
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
		DoNothing: true,
	}).Create(tm).Error
}

func (r *repository) Exists(a, b uuid.UUID) (bool, error) {
	first, second := Canonical(a, b)
	var count int64
	err := r.db.Model(&TeamMember{}).
		Where("user_a_id = ? AND user_b_id = ?", first, second).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListPartnerIDs(userID uuid.UUID) ([]uuid.UUID, error) {
	var rows []*TeamMember
	err := r.db.
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	partners := make([]uuid.UUID, 0, len(rows))
	for _, tm := range rows {
		if tm.UserAID == userID {
			partners = append(partners, tm.UserBID)
		} else {
			partners = append(partners, tm.UserAID)
		}
	}
	return partners, nil
}
