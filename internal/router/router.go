package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/metabuy/metabuy-api/internal/auth"
	"github.com/metabuy/metabuy-api/internal/goal"
	"github.com/metabuy/metabuy-api/internal/invitation"
	"github.com/metabuy/metabuy-api/internal/middlewares"
	"github.com/metabuy/metabuy-api/internal/quick_list"
	"github.com/metabuy/metabuy-api/internal/team_goal"
	"github.com/metabuy/metabuy-api/internal/user"
)

type RouterConfig struct {
	UserHandler       *user.Handler
	GoalHandler       *goal.Handler
	TeamGoalHandler   *team_goal.Handler
	InvitationHandler *invitation.Handler
	QuickListHandler  *quick_list.Handler
}

func New(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CorsMiddleware)

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", cfg.UserHandler.Login)
		r.Post("/logout", auth.NewHandler().Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)

		r.Mount("/users", user.Routes(cfg.UserHandler))
		r.Mount("/goals", goal.Routes(cfg.GoalHandler))
		r.Mount("/sub-goals", goal.SubGoalRoutes(cfg.GoalHandler))
		r.Mount("/team-goals", team_goal.Routes(cfg.TeamGoalHandler))
		r.Mount("/invitations", invitation.Routes(cfg.InvitationHandler))
		r.Mount("/quick-list", quick_list.Routes(cfg.QuickListHandler))
	})

	return r
}
