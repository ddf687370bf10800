package goal

import "github.com/shopspring/decimal"

type CreateGoalDTO struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	TargetAmount decimal.Decimal `json:"target_amount"`
}

type UpdateGoalDTO struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
}

type CreateSubGoalDTO struct {
	Title  string          `json:"title"`
	Amount decimal.Decimal `json:"amount"`
}

type UpdateSubGoalDTO struct {
	Title  *string          `json:"title"`
	Amount *decimal.Decimal `json:"amount"`
}

type AddSavingDTO struct {
	Amount decimal.Decimal `json:"amount"`
}

type GoalWithSubGoals struct {
	IndividualGoal
	SubGoals []*SubGoal `json:"sub_goals"`
}
