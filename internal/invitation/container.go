package invitation

import (
	"github.com/metabuy/metabuy-api/internal/membership"
	"github.com/metabuy/metabuy-api/internal/user"
	"gorm.io/gorm"
)

type InvitationContainer struct {
	Handler *Handler
	Service InvitationService
	Repo    InvitationRepository
}

func NewInvitationContainer(db *gorm.DB, userRepo user.UserRepository, members membership.Repository, propagator Propagator) *InvitationContainer {
	repo := NewRepository(db)
	service := NewService(repo, userRepo, members, propagator)
	handler := NewHandler(service)

	return &InvitationContainer{
		Handler: handler,
		Service: service,
		Repo:    repo,
	}
}
