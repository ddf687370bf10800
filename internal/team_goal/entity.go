package team_goal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TeamGoal struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedBy    uuid.UUID       `gorm:"column:created_by;type:uuid;not null;index" json:"created_by"`
	Title        string          `gorm:"not null" json:"title"`
	Description  string          `json:"description,omitempty"`
	TargetAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"target_amount"`
	SavedAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"saved_amount"`
	IsCompleted  bool            `gorm:"not null;default:false" json:"is_completed"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TeamGoalMember is one participant's slice of a team goal. Membership in a
// goal is explicit: contributions are only accepted from existing rows.
type TeamGoalMember struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	GoalID       uuid.UUID       `gorm:"column:goal_id;type:uuid;not null;uniqueIndex:idx_team_goal_members_goal_user" json:"goal_id"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_team_goal_members_goal_user" json:"user_id"`
	Contribution decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"contribution"`
	JoinedAt     time.Time       `json:"joined_at"`
}
