package invitation

import (
	"time"

	"github.com/google/uuid"
)

type TeamInvitation struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FromUserID  uuid.UUID  `gorm:"column:from_user_id;type:uuid;not null;index" json:"from_user_id"`
	FromEmail   string     `gorm:"not null" json:"from_email"`
	FromName    string     `json:"from_name"`
	ToEmail     string     `gorm:"not null;index" json:"to_email"`
	Status      Status     `gorm:"not null;default:'pending'" json:"status"`
	Token       string     `gorm:"not null" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}
