package user

type UserContainer struct {
	Handler *Handler
	Service UserService
	Repo    UserRepository
}

func NewUserContainer(repo UserRepository, goalStats GoalStatsSource, teamStats TeamStatsSource) *UserContainer {
	service := NewService(repo, goalStats, teamStats)
	handler := NewHandler(service)

	return &UserContainer{
		Handler: handler,
		Service: service,
		Repo:    repo,
	}
}
