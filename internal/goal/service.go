package goal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metabuy/metabuy-api/internal/auth"
	"github.com/metabuy/metabuy-api/internal/config"
	"github.com/metabuy/metabuy-api/internal/user"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrGoalNotFound    = errors.New("goal not found")
	ErrSubGoalNotFound = errors.New("sub-goal not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidID       = errors.New("invalid id format")

	ErrTitleRequired          = errors.New("title is required")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrAmountExceedsRemaining = errors.New("amount exceeds remaining target")
	ErrTargetAmountDerived    = errors.New("target amount is derived from sub-goals and cannot be edited directly")
	ErrAmountBelowSaved       = errors.New("amount cannot be reduced below the already saved amount")

	// ErrCascadeIncomplete marks failures that happened after the primary
	// write committed: the goal state is consistent, but the user's
	// denormalized counters may be stale until recomputed.
	ErrCascadeIncomplete = errors.New("user totals cascade incomplete")
)

type GoalService interface {
	CreateGoal(ctx context.Context, dto CreateGoalDTO) (*IndividualGoal, error)
	ListGoalsWithSubGoals(ctx context.Context) ([]*GoalWithSubGoals, error)
	UpdateGoal(ctx context.Context, id string, dto UpdateGoalDTO) (*IndividualGoal, error)
	DeleteGoal(ctx context.Context, id string) error

	CreateSubGoal(ctx context.Context, goalID string, dto CreateSubGoalDTO) (*SubGoal, error)
	UpdateSubGoal(ctx context.Context, subGoalID string, dto UpdateSubGoalDTO) (*SubGoal, error)
	DeleteSubGoal(ctx context.Context, subGoalID string) error

	AddSaving(ctx context.Context, goalID string, amount decimal.Decimal) (*IndividualGoal, error)
	AddSavingToSubGoal(ctx context.Context, subGoalID string, amount decimal.Decimal) (*SubGoal, error)
}

type goalService struct {
	repo     GoalRepository
	userRepo user.UserRepository
}

func NewService(repo GoalRepository, userRepo user.UserRepository) GoalService {
	return &goalService{repo: repo, userRepo: userRepo}
}

func getUserIDFromContext(ctx context.Context, log logrus.FieldLogger, action string) (uuid.UUID, error) {
	claims, err := auth.GetUserClaimsFromContext(ctx)
	if err != nil {
		log.WithError(err).Warnf("Attempt to %s without authentication", action)
		return uuid.Nil, ErrUnauthorized
	}
	return uuid.MustParse(claims.UserID), nil
}

func parseUUID(log logrus.FieldLogger, id string, entityName string) (uuid.UUID, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		log.WithError(err).Warnf("Invalid %s ID", entityName)
		return uuid.Nil, ErrInvalidID
	}
	return parsedID, nil
}

func (s *goalService) CreateGoal(ctx context.Context, dto CreateGoalDTO) (*IndividualGoal, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "create goal")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(dto.Title) == "" {
		return nil, ErrTitleRequired
	}
	if !dto.TargetAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	g := &IndividualGoal{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        strings.TrimSpace(dto.Title),
		Description:  dto.Description,
		TargetAmount: dto.TargetAmount,
		SavedAmount:  decimal.Zero,
		IsCompleted:  false,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.repo.Create(g); err != nil {
		log.WithError(err).Error("Failed to create goal")
		return nil, err
	}

	if err := s.userRepo.IncrementActiveGoals(userID, 1); err != nil {
		log.WithError(err).Error("Failed to increment active goals after goal create")
		return g, fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
	}

	log.WithField("goal_id", g.ID).Info("Goal created successfully")
	return g, nil
}

func (s *goalService) ListGoalsWithSubGoals(ctx context.Context) ([]*GoalWithSubGoals, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "list goals")
	if err != nil {
		return nil, err
	}

	goals, err := s.repo.ListByUser(userID)
	if err != nil {
		log.WithError(err).Error("Failed to list goals by user")
		return nil, err
	}

	result := make([]*GoalWithSubGoals, 0, len(goals))
	for _, g := range goals {
		subGoals, err := s.repo.ListSubGoalsByGoal(g.ID)
		if err != nil {
			log.WithError(err).Error("Failed to list sub-goals")
			return nil, err
		}
		result = append(result, &GoalWithSubGoals{IndividualGoal: *g, SubGoals: subGoals})
	}
	return result, nil
}

func (s *goalService) UpdateGoal(ctx context.Context, id string, dto UpdateGoalDTO) (*IndividualGoal, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "update goal")
	if err != nil {
		return nil, err
	}

	goalID, err := parseUUID(log, id, "goal")
	if err != nil {
		return nil, err
	}

	g, err := s.repo.FindByID(goalID)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, ErrUnauthorized
	}

	if dto.TargetAmount != nil {
		subGoals, err := s.repo.ListSubGoalsByGoal(goalID)
		if err != nil {
			log.WithError(err).Error("Failed to list sub-goals for target edit check")
			return nil, err
		}
		if len(subGoals) > 0 {
			return nil, ErrTargetAmountDerived
		}
		if !dto.TargetAmount.IsPositive() {
			return nil, ErrInvalidAmount
		}
		g.TargetAmount = *dto.TargetAmount
	}
	if dto.Title != nil {
		if strings.TrimSpace(*dto.Title) == "" {
			return nil, ErrTitleRequired
		}
		g.Title = strings.TrimSpace(*dto.Title)
	}
	if dto.Description != nil {
		g.Description = *dto.Description
	}

	wasCompleted := g.IsCompleted
	g.IsCompleted = g.SavedAmount.GreaterThanOrEqual(g.TargetAmount)
	g.UpdatedAt = time.Now()

	if err := s.repo.Update(g); err != nil {
		log.WithError(err).Error("Failed to update goal")
		return nil, err
	}

	if err := s.adjustActiveGoals(log, userID, wasCompleted, g.IsCompleted); err != nil {
		return g, fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
	}

	log.WithField("goal_id", g.ID).Info("Goal updated successfully")
	return g, nil
}

func (s *goalService) DeleteGoal(ctx context.Context, id string) error {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "delete goal")
	if err != nil {
		return err
	}

	goalID, err := parseUUID(log, id, "goal")
	if err != nil {
		return err
	}

	g, err := s.repo.FindByID(goalID)
	if err != nil {
		return err
	}
	if g.UserID != userID {
		return ErrUnauthorized
	}

	err = s.repo.Transaction(func(tx GoalRepository) error {
		if err := tx.DeleteSubGoalsByGoal(goalID); err != nil {
			return err
		}
		return tx.Delete(goalID)
	})
	if err != nil {
		log.WithError(err).Error("Failed to delete goal")
		return err
	}

	if !g.IsCompleted {
		if err := s.userRepo.IncrementActiveGoals(userID, -1); err != nil {
			log.WithError(err).Error("Failed to decrement active goals after goal delete")
			return fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
		}
	}

	log.WithField("goal_id", goalID).Info("Goal deleted successfully")
	return nil
}

func (s *goalService) CreateSubGoal(ctx context.Context, goalID string, dto CreateSubGoalDTO) (*SubGoal, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "create sub-goal")
	if err != nil {
		return nil, err
	}

	parentID, err := parseUUID(log, goalID, "goal")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(dto.Title) == "" {
		return nil, ErrTitleRequired
	}
	if !dto.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	sg := &SubGoal{
		ID:          uuid.New(),
		GoalID:      parentID,
		Title:       strings.TrimSpace(dto.Title),
		Amount:      dto.Amount,
		SavedAmount: decimal.Zero,
		Completed:   false,
		CreatedAt:   time.Now(),
	}

	var wasCompleted, nowCompleted bool
	err = s.repo.Transaction(func(tx GoalRepository) error {
		g, err := tx.FindByIDForUpdate(parentID)
		if err != nil {
			return err
		}
		if g.UserID != userID {
			return ErrUnauthorized
		}
		if err := tx.CreateSubGoal(sg); err != nil {
			return err
		}
		wasCompleted = g.IsCompleted
		if err := recomputeTargetAmount(tx, g); err != nil {
			return err
		}
		nowCompleted = g.IsCompleted
		return nil
	})
	if err != nil {
		if !isValidationOrNotFound(err) {
			log.WithError(err).Error("Failed to create sub-goal")
		}
		return nil, err
	}

	if err := s.adjustActiveGoals(log, userID, wasCompleted, nowCompleted); err != nil {
		return sg, fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
	}

	log.WithField("sub_goal_id", sg.ID).Info("Sub-goal created successfully")
	return sg, nil
}

func (s *goalService) UpdateSubGoal(ctx context.Context, subGoalID string, dto UpdateSubGoalDTO) (*SubGoal, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "update sub-goal")
	if err != nil {
		return nil, err
	}

	sgID, err := parseUUID(log, subGoalID, "sub-goal")
	if err != nil {
		return nil, err
	}

	var updated *SubGoal
	var wasCompleted, nowCompleted bool
	var parentUserID uuid.UUID
	err = s.repo.Transaction(func(tx GoalRepository) error {
		sg, err := tx.FindSubGoalByIDForUpdate(sgID)
		if err != nil {
			return err
		}
		g, err := tx.FindByIDForUpdate(sg.GoalID)
		if err != nil {
			return err
		}
		if g.UserID != userID {
			return ErrUnauthorized
		}
		parentUserID = g.UserID

		if dto.Amount != nil {
			if !dto.Amount.IsPositive() {
				return ErrInvalidAmount
			}
			if dto.Amount.LessThan(sg.SavedAmount) {
				return ErrAmountBelowSaved
			}
			sg.Amount = *dto.Amount
		}
		if dto.Title != nil {
			if strings.TrimSpace(*dto.Title) == "" {
				return ErrTitleRequired
			}
			sg.Title = strings.TrimSpace(*dto.Title)
		}
		sg.Completed = sg.SavedAmount.GreaterThanOrEqual(sg.Amount)

		if err := tx.UpdateSubGoal(sg); err != nil {
			return err
		}

		wasCompleted = g.IsCompleted
		if err := recomputeTargetAmount(tx, g); err != nil {
			return err
		}
		nowCompleted = g.IsCompleted
		updated = sg
		return nil
	})
	if err != nil {
		if !isValidationOrNotFound(err) {
			log.WithError(err).Error("Failed to update sub-goal")
		}
		return nil, err
	}

	if err := s.adjustActiveGoals(log, parentUserID, wasCompleted, nowCompleted); err != nil {
		return updated, fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
	}

	log.WithField("sub_goal_id", sgID).Info("Sub-goal updated successfully")
	return updated, nil
}

func (s *goalService) DeleteSubGoal(ctx context.Context, subGoalID string) error {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "delete sub-goal")
	if err != nil {
		return err
	}

	sgID, err := parseUUID(log, subGoalID, "sub-goal")
	if err != nil {
		return err
	}

	var wasCompleted, nowCompleted bool
	var parentUserID uuid.UUID
	err = s.repo.Transaction(func(tx GoalRepository) error {
		sg, err := tx.FindSubGoalByIDForUpdate(sgID)
		if err != nil {
			return err
		}
		g, err := tx.FindByIDForUpdate(sg.GoalID)
		if err != nil {
			return err
		}
		if g.UserID != userID {
			return ErrUnauthorized
		}
		parentUserID = g.UserID

		if err := tx.DeleteSubGoal(sgID); err != nil {
			return err
		}

		wasCompleted = g.IsCompleted
		if err := recomputeTargetAmount(tx, g); err != nil {
			return err
		}
		nowCompleted = g.IsCompleted
		return nil
	})
	if err != nil {
		if !isValidationOrNotFound(err) {
			log.WithError(err).Error("Failed to delete sub-goal")
		}
		return err
	}

	if err := s.adjustActiveGoals(log, parentUserID, wasCompleted, nowCompleted); err != nil {
		return fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
	}

	log.WithField("sub_goal_id", sgID).Info("Sub-goal deleted successfully")
	return nil
}

func (s *goalService) AddSaving(ctx context.Context, goalID string, amount decimal.Decimal) (*IndividualGoal, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "add saving")
	if err != nil {
		return nil, err
	}

	gID, err := parseUUID(log, goalID, "goal")
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var updated *IndividualGoal
	var completedNow bool
	err = s.repo.Transaction(func(tx GoalRepository) error {
		g, err := tx.FindByIDForUpdate(gID)
		if err != nil {
			return err
		}
		if g.UserID != userID {
			return ErrUnauthorized
		}
		var err2 error
		updated, completedNow, err2 = applySaving(tx, g, amount)
		return err2
	})
	if err != nil {
		if !isValidationOrNotFound(err) {
			log.WithError(err).Error("Failed to add saving")
		}
		return nil, err
	}

	if err := s.cascadeSaving(log, userID, amount, completedNow); err != nil {
		return updated, fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
	}

	log.WithFields(logrus.Fields{"goal_id": gID, "amount": amount}).Info("Saving added successfully")
	return updated, nil
}

func (s *goalService) AddSavingToSubGoal(ctx context.Context, subGoalID string, amount decimal.Decimal) (*SubGoal, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "add saving to sub-goal")
	if err != nil {
		return nil, err
	}

	sgID, err := parseUUID(log, subGoalID, "sub-goal")
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var updated *SubGoal
	var completedNow bool
	err = s.repo.Transaction(func(tx GoalRepository) error {
		sg, err := tx.FindSubGoalByIDForUpdate(sgID)
		if err != nil {
			return err
		}
		g, err := tx.FindByIDForUpdate(sg.GoalID)
		if err != nil {
			return err
		}
		if g.UserID != userID {
			return ErrUnauthorized
		}

		remaining := sg.Amount.Sub(sg.SavedAmount)
		if amount.GreaterThan(remaining) {
			return ErrAmountExceedsRemaining
		}

		sg.SavedAmount = sg.SavedAmount.Add(amount)
		sg.Completed = sg.SavedAmount.GreaterThanOrEqual(sg.Amount)
		if err := tx.UpdateSubGoal(sg); err != nil {
			return err
		}

		// The same amount is forwarded to the parent goal in this
		// transaction: both rows change or neither does.
		_, completed, err := applySaving(tx, g, amount)
		if err != nil {
			return err
		}
		completedNow = completed

		updated = sg
		return nil
	})
	if err != nil {
		if !isValidationOrNotFound(err) {
			log.WithError(err).Error("Failed to add saving to sub-goal")
		}
		return nil, err
	}

	if err := s.cascadeSaving(log, userID, amount, completedNow); err != nil {
		return updated, fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
	}

	log.WithFields(logrus.Fields{"sub_goal_id": sgID, "amount": amount}).Info("Saving added to sub-goal successfully")
	return updated, nil
}

// applySaving mutates and persists the goal for a validated deposit. It
// reports whether the deposit crossed the goal into completion.
func applySaving(tx GoalRepository, g *IndividualGoal, amount decimal.Decimal) (*IndividualGoal, bool, error) {
	remaining := g.TargetAmount.Sub(g.SavedAmount)
	if amount.GreaterThan(remaining) {
		return nil, false, ErrAmountExceedsRemaining
	}

	wasCompleted := g.IsCompleted
	g.SavedAmount = g.SavedAmount.Add(amount)
	g.IsCompleted = g.SavedAmount.GreaterThanOrEqual(g.TargetAmount)
	g.UpdatedAt = time.Now()

	if err := tx.Update(g); err != nil {
		return nil, false, err
	}
	return g, !wasCompleted && g.IsCompleted, nil
}

// recomputeTargetAmount makes the parent's target the sum of its sub-goal
// amounts. When the last sub-goal is gone the target keeps its final computed
// value and becomes directly editable again.
func recomputeTargetAmount(tx GoalRepository, g *IndividualGoal) error {
	subGoals, err := tx.ListSubGoalsByGoal(g.ID)
	if err != nil {
		return err
	}
	if len(subGoals) == 0 {
		return nil
	}

	total := decimal.Zero
	for _, sg := range subGoals {
		total = total.Add(sg.Amount)
	}

	g.TargetAmount = total
	g.IsCompleted = g.SavedAmount.GreaterThanOrEqual(total)
	g.UpdatedAt = time.Now()
	return tx.Update(g)
}

func (s *goalService) cascadeSaving(log logrus.FieldLogger, userID uuid.UUID, amount decimal.Decimal, completedNow bool) error {
	if err := s.userRepo.IncrementTotalSavings(userID, amount); err != nil {
		log.WithError(err).Error("Failed to increment total savings")
		return err
	}
	if completedNow {
		if err := s.userRepo.IncrementActiveGoals(userID, -1); err != nil {
			log.WithError(err).Error("Failed to decrement active goals on completion")
			return err
		}
	}
	return nil
}

func (s *goalService) adjustActiveGoals(log logrus.FieldLogger, userID uuid.UUID, wasCompleted, nowCompleted bool) error {
	if wasCompleted == nowCompleted {
		return nil
	}
	delta := -1
	if wasCompleted && !nowCompleted {
		delta = 1
	}
	if err := s.userRepo.IncrementActiveGoals(userID, delta); err != nil {
		log.WithError(err).Error("Failed to adjust active goals on completion change")
		return err
	}
	return nil
}

func isValidationOrNotFound(err error) bool {
	return errors.Is(err, ErrGoalNotFound) ||
		errors.Is(err, ErrSubGoalNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrAmountExceedsRemaining) ||
		errors.Is(err, ErrAmountBelowSaved) ||
		errors.Is(err, ErrTargetAmountDerived)
}
