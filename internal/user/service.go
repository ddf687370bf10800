package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metabuy/metabuy-api/internal/config"
	"github.com/shopspring/decimal"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrEmailRequired = errors.New("email is required")
)

// GoalStatsSource and TeamStatsSource are implemented by the goal and team
// goal repositories. They let RecomputeStats rebuild the denormalized
// counters from the source of truth without this package depending on those
// packages.
type GoalStatsSource interface {
	SumSavedByUser(userID uuid.UUID) (decimal.Decimal, error)
	CountActiveByUser(userID uuid.UUID) (int64, error)
}

type TeamStatsSource interface {
	SumContributionsByUser(userID uuid.UUID) (decimal.Decimal, error)
}

type UserService interface {
	UpsertProfile(ctx context.Context, email, displayName, photoURL string) (*User, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*User, error)
	RecomputeStats(ctx context.Context, id uuid.UUID) (*User, error)
}

type userService struct {
	repo      UserRepository
	goalStats GoalStatsSource
	teamStats TeamStatsSource
}

func NewService(repo UserRepository, goalStats GoalStatsSource, teamStats TeamStatsSource) UserService {
	return &userService{
		repo:      repo,
		goalStats: goalStats,
		teamStats: teamStats,
	}
}

func (s *userService) UpsertProfile(ctx context.Context, email, displayName, photoURL string) (*User, error) {
	log := config.WithContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	existing, err := s.repo.FindByEmail(email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		log.WithError(err).Error("Failed to look up user by email")
		return nil, err
	}

	if existing == nil {
		u := &User{
			ID:           uuid.New(),
			Email:        email,
			DisplayName:  displayName,
			PhotoURL:     photoURL,
			TotalSavings: decimal.Zero,
			ActiveGoals:  0,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err := s.repo.Create(u); err != nil {
			log.WithError(err).Error("Failed to create user profile")
			return nil, err
		}
		log.WithField("user_id", u.ID).Info("User profile created")
		return u, nil
	}

	existing.DisplayName = displayName
	existing.PhotoURL = photoURL
	existing.UpdatedAt = time.Now()
	if err := s.repo.Update(existing); err != nil {
		log.WithError(err).Error("Failed to update user profile")
		return nil, err
	}
	return existing, nil
}

func (s *userService) GetProfile(ctx context.Context, id uuid.UUID) (*User, error) {
	log := config.WithContext(ctx)

	u, err := s.repo.FindByID(id)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.WithError(err).Error("Failed to find user")
		}
		return nil, err
	}
	return u, nil
}

// RecomputeStats rebuilds total_savings and active_goals from goals and team
// contributions. The counters are otherwise maintained incrementally, so this
// is the consistency backstop against missed or duplicated cascades.
func (s *userService) RecomputeStats(ctx context.Context, id uuid.UUID) (*User, error) {
	log := config.WithContext(ctx)

	u, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	goalSavings, err := s.goalStats.SumSavedByUser(id)
	if err != nil {
		log.WithError(err).Error("Failed to sum goal savings")
		return nil, err
	}
	activeGoals, err := s.goalStats.CountActiveByUser(id)
	if err != nil {
		log.WithError(err).Error("Failed to count active goals")
		return nil, err
	}
	teamContributions, err := s.teamStats.SumContributionsByUser(id)
	if err != nil {
		log.WithError(err).Error("Failed to sum team contributions")
		return nil, err
	}

	u.TotalSavings = goalSavings.Add(teamContributions)
	u.ActiveGoals = int(activeGoals)
	u.UpdatedAt = time.Now()

	if err := s.repo.Update(u); err != nil {
		log.WithError(err).Error("Failed to persist recomputed stats")
		return nil, err
	}

	log.WithField("user_id", id).Info("User stats recomputed")
	return u, nil
}
