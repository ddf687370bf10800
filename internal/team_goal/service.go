package team_goal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metabuy/metabuy-api/internal/auth"
	"github.com/metabuy/metabuy-api/internal/config"
	"github.com/metabuy/metabuy-api/internal/membership"
	"github.com/metabuy/metabuy-api/internal/user"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrTeamGoalNotFound = errors.New("team goal not found")
	ErrNotMember        = errors.New("user is not a member of this team goal")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidID        = errors.New("invalid id format")

	ErrTitleRequired          = errors.New("title is required")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrAmountExceedsRemaining = errors.New("amount exceeds remaining target")

	// ErrCascadeIncomplete marks a contribution that committed but whose
	// user-total update failed; the goal state is correct.
	ErrCascadeIncomplete = errors.New("user totals cascade incomplete")

	// ErrPropagationIncomplete marks a membership fan-out that added the new
	// partner to some goals but not all. The relation itself stands; the
	// fan-out is replayable.
	ErrPropagationIncomplete = errors.New("membership propagation incomplete")
)

type TeamGoalService interface {
	CreateTeamGoal(ctx context.Context, dto CreateTeamGoalDTO) (*TeamGoalResponse, error)
	ListTeamGoals(ctx context.Context) ([]*TeamGoalResponse, error)
	Contribute(ctx context.Context, goalID string, amount decimal.Decimal) (*TeamGoalResponse, error)

	// AddMemberToUserGoals fans a fresh relation out to both users' existing
	// team goals: each is added, at zero contribution, to every goal of the
	// other they are not yet on. Per-goal failures do not stop the rest.
	AddMemberToUserGoals(ctx context.Context, a, b uuid.UUID) error

	// SyncMembers replays the fan-out for every relation the caller has.
	// This is the repair path for a previously incomplete propagation.
	SyncMembers(ctx context.Context) error
}

type teamGoalService struct {
	repo     TeamGoalRepository
	members  membership.Repository
	userRepo user.UserRepository
}

func NewService(repo TeamGoalRepository, members membership.Repository, userRepo user.UserRepository) TeamGoalService {
	return &teamGoalService{repo: repo, members: members, userRepo: userRepo}
}

func getUserIDFromContext(ctx context.Context, log logrus.FieldLogger, action string) (uuid.UUID, error) {
	claims, err := auth.GetUserClaimsFromContext(ctx)
	if err != nil {
		log.WithError(err).Warnf("Attempt to %s without authentication", action)
		return uuid.Nil, ErrUnauthorized
	}
	return uuid.MustParse(claims.UserID), nil
}

func (s *teamGoalService) CreateTeamGoal(ctx context.Context, dto CreateTeamGoalDTO) (*TeamGoalResponse, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "create team goal")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(dto.Title) == "" {
		return nil, ErrTitleRequired
	}
	if !dto.TargetAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	partners, err := s.members.ListPartnerIDs(userID)
	if err != nil {
		log.WithError(err).Error("Failed to list membership partners")
		return nil, err
	}

	g := &TeamGoal{
		ID:           uuid.New(),
		CreatedBy:    userID,
		Title:        strings.TrimSpace(dto.Title),
		Description:  dto.Description,
		TargetAmount: dto.TargetAmount,
		SavedAmount:  decimal.Zero,
		IsCompleted:  false,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	// The member list is a snapshot of the creator's relations at creation
	// time. Relations formed later reach the goal through the propagator.
	seed := append([]uuid.UUID{userID}, partners...)
	var memberRows []*TeamGoalMember
	err = s.repo.Transaction(func(tx TeamGoalRepository) error {
		if err := tx.Create(g); err != nil {
			return err
		}
		for _, memberID := range seed {
			m := &TeamGoalMember{
				ID:           uuid.New(),
				GoalID:       g.ID,
				UserID:       memberID,
				Contribution: decimal.Zero,
				JoinedAt:     time.Now(),
			}
			if err := tx.CreateMember(m); err != nil {
				return err
			}
			memberRows = append(memberRows, m)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to create team goal")
		return nil, err
	}

	log.WithFields(logrus.Fields{"team_goal_id": g.ID, "members": len(memberRows)}).
		Info("Team goal created successfully")
	return toResponse(g, memberRows), nil
}

func (s *teamGoalService) ListTeamGoals(ctx context.Context) ([]*TeamGoalResponse, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "list team goals")
	if err != nil {
		return nil, err
	}

	goals, err := s.repo.ListByMember(userID)
	if err != nil {
		log.WithError(err).Error("Failed to list team goals")
		return nil, err
	}

	result := make([]*TeamGoalResponse, 0, len(goals))
	for _, g := range goals {
		members, err := s.repo.ListMembersByGoal(g.ID)
		if err != nil {
			log.WithError(err).Error("Failed to list team goal members")
			return nil, err
		}
		result = append(result, toResponse(g, members))
	}
	return result, nil
}

func (s *teamGoalService) Contribute(ctx context.Context, goalID string, amount decimal.Decimal) (*TeamGoalResponse, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "contribute to team goal")
	if err != nil {
		return nil, err
	}

	gID, err := uuid.Parse(goalID)
	if err != nil {
		log.WithError(err).Warn("Invalid team goal ID")
		return nil, ErrInvalidID
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var updated *TeamGoal
	var memberRows []*TeamGoalMember
	err = s.repo.Transaction(func(tx TeamGoalRepository) error {
		g, err := tx.FindByIDForUpdate(gID)
		if err != nil {
			return err
		}

		m, err := tx.FindMemberForUpdate(gID, userID)
		if err != nil {
			return err
		}
		if m == nil {
			// Contributing never implies joining.
			return ErrNotMember
		}

		remaining := g.TargetAmount.Sub(g.SavedAmount)
		if amount.GreaterThan(remaining) {
			return ErrAmountExceedsRemaining
		}

		m.Contribution = m.Contribution.Add(amount)
		if err := tx.UpdateMember(m); err != nil {
			return err
		}

		g.SavedAmount = g.SavedAmount.Add(amount)
		g.IsCompleted = g.SavedAmount.GreaterThanOrEqual(g.TargetAmount)
		g.UpdatedAt = time.Now()
		if err := tx.Update(g); err != nil {
			return err
		}

		updated = g
		memberRows, err = tx.ListMembersByGoal(gID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrTeamGoalNotFound) && !errors.Is(err, ErrNotMember) &&
			!errors.Is(err, ErrAmountExceedsRemaining) {
			log.WithError(err).Error("Failed to contribute to team goal")
		}
		return nil, err
	}

	if err := s.userRepo.IncrementTotalSavings(userID, amount); err != nil {
		log.WithError(err).Error("Failed to increment total savings after contribution")
		return toResponse(updated, memberRows), fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
	}

	log.WithFields(logrus.Fields{"team_goal_id": gID, "amount": amount}).
		Info("Contribution recorded successfully")
	return toResponse(updated, memberRows), nil
}

func (s *teamGoalService) AddMemberToUserGoals(ctx context.Context, a, b uuid.UUID) error {
	log := config.WithContext(ctx)

	var failed int
	for _, pair := range [][2]uuid.UUID{{a, b}, {b, a}} {
		owner, joiner := pair[0], pair[1]

		goals, err := s.repo.ListByMember(owner)
		if err != nil {
			log.WithError(err).WithField("user_id", owner).
				Error("Failed to list goals for membership propagation")
			failed++
			continue
		}

		for _, g := range goals {
			existing, err := s.repo.FindMember(g.ID, joiner)
			if err == nil && existing != nil {
				continue
			}
			if err != nil {
				log.WithError(err).WithField("team_goal_id", g.ID).
					Error("Failed to check membership during propagation")
				failed++
				continue
			}
			m := &TeamGoalMember{
				ID:           uuid.New(),
				GoalID:       g.ID,
				UserID:       joiner,
				Contribution: decimal.Zero,
				JoinedAt:     time.Now(),
			}
			if err := s.repo.CreateMember(m); err != nil {
				log.WithError(err).WithField("team_goal_id", g.ID).
					Error("Failed to add member during propagation")
				failed++
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d goal(s) not updated", ErrPropagationIncomplete, failed)
	}
	return nil
}

func (s *teamGoalService) SyncMembers(ctx context.Context) error {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "sync team goal members")
	if err != nil {
		return err
	}

	partners, err := s.members.ListPartnerIDs(userID)
	if err != nil {
		log.WithError(err).Error("Failed to list membership partners")
		return err
	}

	var incomplete bool
	for _, partner := range partners {
		if err := s.AddMemberToUserGoals(ctx, userID, partner); err != nil {
			incomplete = true
		}
	}
	if incomplete {
		return ErrPropagationIncomplete
	}

	log.WithField("user_id", userID).Info("Team goal members synced")
	return nil
}
