package goal

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GoalRepository interface {
	Create(g *IndividualGoal) error
	FindByID(id uuid.UUID) (*IndividualGoal, error)
	FindByIDForUpdate(id uuid.UUID) (*IndividualGoal, error)
	ListByUser(userID uuid.UUID) ([]*IndividualGoal, error)
	Update(g *IndividualGoal) error
	Delete(id uuid.UUID) error

	CreateSubGoal(sg *SubGoal) error
	FindSubGoalByID(id uuid.UUID) (*SubGoal, error)
	FindSubGoalByIDForUpdate(id uuid.UUID) (*SubGoal, error)
	ListSubGoalsByGoal(goalID uuid.UUID) ([]*SubGoal, error)
	UpdateSubGoal(sg *SubGoal) error
	DeleteSubGoal(id uuid.UUID) error
	DeleteSubGoalsByGoal(goalID uuid.UUID) error

	SumSavedByUser(userID uuid.UUID) (decimal.Decimal, error)
	CountActiveByUser(userID uuid.UUID) (int64, error)

	// Transaction runs fn against a repository bound to a single database
	// transaction. Everything fn writes commits or rolls back as one batch.
	Transaction(fn func(GoalRepository) error) error
}

type goalRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(g *IndividualGoal) error {
	return r.db.Create(g).Error
}

func (r *goalRepository) FindByID(id uuid.UUID) (*IndividualGoal, error) {
	var g IndividualGoal
	if err := r.db.First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *goalRepository) FindByIDForUpdate(id uuid.UUID) (*IndividualGoal, error) {
	var g IndividualGoal
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&g, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *goalRepository) ListByUser(userID uuid.UUID) ([]*IndividualGoal, error) {
	var goals []*IndividualGoal
	if err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *goalRepository) Update(g *IndividualGoal) error {
	return r.db.Save(g).Error
}

func (r *goalRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&IndividualGoal{}, "id = ?", id).Error
}

func (r *goalRepository) CreateSubGoal(sg *SubGoal) error {
	return r.db.Create(sg).Error
}

func (r *goalRepository) FindSubGoalByID(id uuid.UUID) (*SubGoal, error) {
	var sg SubGoal
	if err := r.db.First(&sg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubGoalNotFound
		}
		return nil, err
	}
	return &sg, nil
}

func (r *goalRepository) FindSubGoalByIDForUpdate(id uuid.UUID) (*SubGoal, error) {
	var sg SubGoal
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sg, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubGoalNotFound
		}
		return nil, err
	}
	return &sg, nil
}

func (r *goalRepository) ListSubGoalsByGoal(goalID uuid.UUID) ([]*SubGoal, error) {
	var subGoals []*SubGoal
	if err := r.db.
		Where("goal_id = ?", goalID).
		Order("created_at ASC").
		Find(&subGoals).Error; err != nil {
		return nil, err
	}
	return subGoals, nil
}

func (r *goalRepository) UpdateSubGoal(sg *SubGoal) error {
	return r.db.Save(sg).Error
}

func (r *goalRepository) DeleteSubGoal(id uuid.UUID) error {
	return r.db.Delete(&SubGoal{}, "id = ?", id).Error
}

func (r *goalRepository) DeleteSubGoalsByGoal(goalID uuid.UUID) error {
	return r.db.Delete(&SubGoal{}, "goal_id = ?", goalID).Error
}

func (r *goalRepository) SumSavedByUser(userID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.Model(&IndividualGoal{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(saved_amount), 0)").
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *goalRepository) CountActiveByUser(userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&IndividualGoal{}).
		Where("user_id = ? AND is_completed = false", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *goalRepository) Transaction(fn func(GoalRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&goalRepository{db: tx})
	})
}
