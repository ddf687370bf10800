package team_goal

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TeamGoalRepository interface {
	Create(g *TeamGoal) error
	FindByID(id uuid.UUID) (*TeamGoal, error)
	FindByIDForUpdate(id uuid.UUID) (*TeamGoal, error)
	ListByMember(userID uuid.UUID) ([]*TeamGoal, error)
	Update(g *TeamGoal) error

	// CreateMember inserts a member row, silently succeeding when the
	// (goal, user) pair already exists. Propagation replays must be no-ops.
	CreateMember(m *TeamGoalMember) error
	// FindMember returns (nil, nil) when the user has no row on the goal.
	FindMember(goalID, userID uuid.UUID) (*TeamGoalMember, error)
	FindMemberForUpdate(goalID, userID uuid.UUID) (*TeamGoalMember, error)
	UpdateMember(m *TeamGoalMember) error
	ListMembersByGoal(goalID uuid.UUID) ([]*TeamGoalMember, error)

	SumContributionsByUser(userID uuid.UUID) (decimal.Decimal, error)

	Transaction(fn func(TeamGoalRepository) error) error
}

type teamGoalRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) TeamGoalRepository {
	return &teamGoalRepository{db: db}
}

func (r *teamGoalRepository) Create(g *TeamGoal) error {
	return r.db.Create(g).Error
}

func (r *teamGoalRepository) FindByID(id uuid.UUID) (*TeamGoal, error) {
	var g TeamGoal
	if err := r.db.First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamGoalNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *teamGoalRepository) FindByIDForUpdate(id uuid.UUID) (*TeamGoal, error) {
	var g TeamGoal
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&g, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamGoalNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *teamGoalRepository) ListByMember(userID uuid.UUID) ([]*TeamGoal, error) {
	var goals []*TeamGoal
	err := r.db.
		Joins("JOIN team_goal_members ON team_goal_members.goal_id = team_goals.id").
		Where("team_goal_members.user_id = ?", userID).
		Order("team_goals.created_at DESC").
		Find(&goals).Error
	if err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *teamGoalRepository) Update(g *TeamGoal) error {
	return r.db.Save(g).Error
}

func (r *teamGoalRepository) CreateMember(m *TeamGoalMember) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "goal_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(m).Error
}

func (r *teamGoalRepository) FindMember(goalID, userID uuid.UUID) (*TeamGoalMember, error) {
	var m TeamGoalMember
	err := r.db.First(&m, "goal_id = ? AND user_id = ?", goalID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *teamGoalRepository) FindMemberForUpdate(goalID, userID uuid.UUID) (*TeamGoalMember, error) {
	var m TeamGoalMember
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "goal_id = ? AND user_id = ?", goalID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *teamGoalRepository) UpdateMember(m *TeamGoalMember) error {
	return r.db.Save(m).Error
}

func (r *teamGoalRepository) ListMembersByGoal(goalID uuid.UUID) ([]*TeamGoalMember, error) {
	var members []*TeamGoalMember
	err := r.db.
		Where("goal_id = ?", goalID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *teamGoalRepository) SumContributionsByUser(userID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.Model(&TeamGoalMember{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(contribution), 0)").
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *teamGoalRepository) Transaction(fn func(TeamGoalRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&teamGoalRepository{db: tx})
	})
}
