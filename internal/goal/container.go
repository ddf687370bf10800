package goal

import (
	"github.com/metabuy/metabuy-api/internal/user"
	"gorm.io/gorm"
)

type GoalContainer struct {
	Handler *Handler
	Service GoalService
	Repo    GoalRepository
}

func NewGoalContainer(db *gorm.DB, userRepo user.UserRepository) *GoalContainer {
	repo := NewRepository(db)
	service := NewService(repo, userRepo)
	handler := NewHandler(service)

	return &GoalContainer{
		Handler: handler,
		Service: service,
		Repo:    repo,
	}
}
