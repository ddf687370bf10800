package goal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type IndividualGoal struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Title        string          `gorm:"not null" json:"title"`
	Description  string          `json:"description,omitempty"`
	TargetAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"target_amount"`
	SavedAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"saved_amount"`
	IsCompleted  bool            `gorm:"not null;default:false" json:"is_completed"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type SubGoal struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	GoalID      uuid.UUID       `gorm:"column:goal_id;type:uuid;not null;index" json:"goal_id"`
	Title       string          `gorm:"not null" json:"title"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	SavedAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"saved_amount"`
	Completed   bool            `gorm:"not null;default:false" json:"completed"`
	CreatedAt   time.Time       `json:"created_at"`
}
