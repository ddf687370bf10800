package membership

import (
	"time"

	"github.com/google/uuid"
)

// TeamMember records that two users save together. The pair is stored once,
// in canonical order, so (A,B) and (B,A) are the same row.
type TeamMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserAID   uuid.UUID `gorm:"column:user_a_id;type:uuid;not null;uniqueIndex:idx_team_members_pair" json:"user_a_id"`
	UserBID   uuid.UUID `gorm:"column:user_b_id;type:uuid;not null;uniqueIndex:idx_team_members_pair" json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTeamMember builds the canonical row for a pair, whichever order the
// callers pass the ids in.
func NewTeamMember(a, b uuid.UUID) *TeamMember {
	first, second := Canonical(a, b)
	return &TeamMember{
		ID:        uuid.New(),
		UserAID:   first,
		UserBID:   second,
		CreatedAt: time.Now(),
	}
}

func Canonical(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}
