package quick_list

import "gorm.io/gorm"

type QuickListContainer struct {
	Handler *Handler
	Service QuickListService
	Repo    QuickListRepository
}

func NewQuickListContainer(db *gorm.DB) *QuickListContainer {
	repo := NewRepository(db)
	service := NewService(repo)
	handler := NewHandler(service)

	return &QuickListContainer{
		Handler: handler,
		Service: service,
		Repo:    repo,
	}
}
