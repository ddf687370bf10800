package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string          `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName  string          `json:"display_name"`
	PhotoURL     string          `json:"photo_url,omitempty"`
	TotalSavings decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_savings"`
	ActiveGoals  int             `gorm:"not null;default:0" json:"active_goals"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
