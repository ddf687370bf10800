package team_goal

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateTeamGoalDTO struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	TargetAmount decimal.Decimal `json:"target_amount"`
}

type ContributeDTO struct {
	Amount decimal.Decimal `json:"amount"`
}

// TeamGoalResponse flattens the member rows into the shape clients consume:
// the id list plus a per-user contribution map.
type TeamGoalResponse struct {
	TeamGoal
	Members             []uuid.UUID                `json:"members"`
	MemberContributions map[string]decimal.Decimal `json:"member_contributions"`
}

func toResponse(g *TeamGoal, members []*TeamGoalMember) *TeamGoalResponse {
	resp := &TeamGoalResponse{
		TeamGoal:            *g,
		Members:             make([]uuid.UUID, 0, len(members)),
		MemberContributions: make(map[string]decimal.Decimal, len(members)),
	}
	for _, m := range members {
		resp.Members = append(resp.Members, m.UserID)
		resp.MemberContributions[m.UserID.String()] = m.Contribution
	}
	return resp
}
