package quick_list

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metabuy/metabuy-api/internal/auth"
	"github.com/metabuy/metabuy-api/internal/config"
	"github.com/sirupsen/logrus"
)

var (
	ErrItemNotFound = errors.New("quick list item not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidID    = errors.New("invalid id format")
	ErrTextRequired = errors.New("text is required")
	ErrInvalidPrice = errors.New("price cannot be negative")
)

type QuickListService interface {
	CreateItem(ctx context.Context, dto CreateQuickListItemDTO) (*QuickListItem, error)
	ListItems(ctx context.Context) ([]*QuickListItem, error)
	ToggleItem(ctx context.Context, id string) (*QuickListItem, error)
	DeleteItem(ctx context.Context, id string) error
}

type quickListService struct {
	repo QuickListRepository
}

func NewService(repo QuickListRepository) QuickListService {
	return &quickListService{repo: repo}
}

func getUserIDFromContext(ctx context.Context, log logrus.FieldLogger, action string) (uuid.UUID, error) {
	claims, err := auth.GetUserClaimsFromContext(ctx)
	if err != nil {
		log.WithError(err).Warnf("Attempt to %s without authentication", action)
		return uuid.Nil, ErrUnauthorized
	}
	return uuid.MustParse(claims.UserID), nil
}

func (s *quickListService) CreateItem(ctx context.Context, dto CreateQuickListItemDTO) (*QuickListItem, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "create quick list item")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(dto.Text) == "" {
		return nil, ErrTextRequired
	}
	if dto.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	item := &QuickListItem{
		ID:        uuid.New(),
		UserID:    userID,
		Text:      strings.TrimSpace(dto.Text),
		Price:     dto.Price,
		Completed: false,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(item); err != nil {
		log.WithError(err).Error("Failed to create quick list item")
		return nil, err
	}

	log.WithField("item_id", item.ID).Info("Quick list item created")
	return item, nil
}

func (s *quickListService) ListItems(ctx context.Context) ([]*QuickListItem, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "list quick list items")
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByUser(userID)
	if err != nil {
		log.WithError(err).Error("Failed to list quick list items")
		return nil, err
	}
	return items, nil
}

func (s *quickListService) ToggleItem(ctx context.Context, id string) (*QuickListItem, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "toggle quick list item")
	if err != nil {
		return nil, err
	}

	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	item, err := s.repo.FindByID(itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, ErrUnauthorized
	}

	item.Completed = !item.Completed
	if err := s.repo.Update(item); err != nil {
		log.WithError(err).Error("Failed to toggle quick list item")
		return nil, err
	}
	return item, nil
}

func (s *quickListService) DeleteItem(ctx context.Context, id string) error {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "delete quick list item")
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidID
	}

	item, err := s.repo.FindByID(itemID)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		return ErrUnauthorized
	}

	if err := s.repo.Delete(itemID); err != nil {
		log.WithError(err).Error("Failed to delete quick list item")
		return err
	}

	log.WithField("item_id", itemID).Info("Quick list item deleted")
	return nil
}
