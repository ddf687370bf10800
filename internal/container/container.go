package container

import (
	"context"
	"log"

	"github.com/metabuy/metabuy-api/internal/auth"
	"github.com/metabuy/metabuy-api/internal/config"
	"github.com/metabuy/metabuy-api/internal/goal"
	"github.com/metabuy/metabuy-api/internal/invitation"
	"github.com/metabuy/metabuy-api/internal/membership"
	"github.com/metabuy/metabuy-api/internal/quick_list"
	"github.com/metabuy/metabuy-api/internal/team_goal"
	"github.com/metabuy/metabuy-api/internal/user"
)

type Container struct {
	Config              *config.Config
	UserContainer       *user.UserContainer
	GoalContainer       *goal.GoalContainer
	TeamGoalContainer   *team_goal.TeamGoalContainer
	InvitationContainer *invitation.InvitationContainer
	QuickListContainer  *quick_list.QuickListContainer
}

func New() *Container {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	config.Init()
	auth.Init()
	config.InitCrypto()

	if err := config.Connect(context.Background(), cfg.DatabaseDSN); err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}

	if err := config.DB.AutoMigrate(
		&user.User{},
		&goal.IndividualGoal{},
		&goal.SubGoal{},
		&membership.TeamMember{},
		&team_goal.TeamGoal{},
		&team_goal.TeamGoalMember{},
		&invitation.TeamInvitation{},
		&quick_list.QuickListItem{},
	); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	userRepo := user.NewRepository(config.DB)
	memberRepo := membership.NewRepository(config.DB)

	goalContainer := goal.NewGoalContainer(config.DB, userRepo)
	teamGoalContainer := team_goal.NewTeamGoalContainer(config.DB, memberRepo, userRepo)
	invitationContainer := invitation.NewInvitationContainer(config.DB, userRepo, memberRepo, teamGoalContainer.Service)
	userContainer := user.NewUserContainer(userRepo, goalContainer.Repo, teamGoalContainer.Repo)
	quickListContainer := quick_list.NewQuickListContainer(config.DB)

	return &Container{
		Config:              cfg,
		UserContainer:       userContainer,
		GoalContainer:       goalContainer,
		TeamGoalContainer:   teamGoalContainer,
		InvitationContainer: invitationContainer,
		QuickListContainer:  quickListContainer,
	}
}
