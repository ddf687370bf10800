package quick_list

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuickListItem is a priced wishlist entry. Items are a scratchpad next to
// the goals: checking one off has no effect on savings or counters.
type QuickListItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Text      string          `gorm:"not null" json:"text"`
	Price     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Completed bool            `gorm:"not null;default:false" json:"completed"`
	CreatedAt time.Time       `json:"created_at"`
}
