package team_goal

import (
	"github.com/metabuy/metabuy-api/internal/membership"
	"github.com/metabuy/metabuy-api/internal/user"
	"gorm.io/gorm"
)

type TeamGoalContainer struct {
	Handler *Handler
	Service TeamGoalService
	Repo    TeamGoalRepository
}

func NewTeamGoalContainer(db *gorm.DB, members membership.Repository, userRepo user.UserRepository) *TeamGoalContainer {
	repo := NewRepository(db)
	service := NewService(repo, members, userRepo)
	handler := NewHandler(service)

	return &TeamGoalContainer{
		Handler: handler,
		Service: service,
		Repo:    repo,
	}
}
