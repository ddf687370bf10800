package quick_list

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/metabuy/metabuy-api/internal/auth"
	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	items map[uuid.UUID]*QuickListItem
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[uuid.UUID]*QuickListItem)}
}

func (f *fakeRepo) Create(item *QuickListItem) error {
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(id uuid.UUID) (*QuickListItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeRepo) ListByUser(userID uuid.UUID) ([]*QuickListItem, error) {
	var out []*QuickListItem
	for _, item := range f.items {
		if item.UserID == userID {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) Update(item *QuickListItem) error {
	if _, ok := f.items[item.ID]; !ok {
		return ErrItemNotFound
	}
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func authedCtx(userID uuid.UUID) context.Context {
	return auth.WithUserClaims(context.Background(), &auth.UserClaims{UserID: userID.String()})
}

func TestCreateItem(t *testing.T) {
	userID := uuid.New()
	ctx := authedCtx(userID)

	t.Run("Success", func(t *testing.T) {
		s := NewService(newFakeRepo())
		item, err := s.CreateItem(ctx, CreateQuickListItemDTO{Text: "Headphones", Price: decimal.NewFromInt(150)})
		if err != nil {
			t.Fatalf("CreateItem: %v", err)
		}
		if item.Completed {
			t.Error("new items should start unchecked")
		}
		if item.UserID != userID {
			t.Errorf("user id = %s, want caller's", item.UserID)
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		s := NewService(newFakeRepo())
		_, err := s.CreateItem(ctx, CreateQuickListItemDTO{Text: "  ", Price: decimal.NewFromInt(10)})
		if !errors.Is(err, ErrTextRequired) {
			t.Errorf("err = %v, want ErrTextRequired", err)
		}
	})

	t.Run("NegativePrice", func(t *testing.T) {
		s := NewService(newFakeRepo())
		_, err := s.CreateItem(ctx, CreateQuickListItemDTO{Text: "X", Price: decimal.NewFromInt(-5)})
		if !errors.Is(err, ErrInvalidPrice) {
			t.Errorf("err = %v, want ErrInvalidPrice", err)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		s := NewService(newFakeRepo())
		_, err := s.CreateItem(context.Background(), CreateQuickListItemDTO{Text: "X", Price: decimal.NewFromInt(5)})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})
}

func TestToggleItem(t *testing.T) {
	userID := uuid.New()
	ctx := authedCtx(userID)

	repo := newFakeRepo()
	s := NewService(repo)
	item, err := s.CreateItem(ctx, CreateQuickListItemDTO{Text: "Monitor", Price: decimal.NewFromInt(300)})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	toggled, err := s.ToggleItem(ctx, item.ID.String())
	if err != nil {
		t.Fatalf("ToggleItem: %v", err)
	}
	if !toggled.Completed {
		t.Error("first toggle should mark the item completed")
	}

	toggled, err = s.ToggleItem(ctx, item.ID.String())
	if err != nil {
		t.Fatalf("second ToggleItem: %v", err)
	}
	if toggled.Completed {
		t.Error("second toggle should uncheck the item")
	}

	t.Run("NotOwner", func(t *testing.T) {
		_, err := s.ToggleItem(authedCtx(uuid.New()), item.ID.String())
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("UnknownItem", func(t *testing.T) {
		_, err := s.ToggleItem(ctx, uuid.NewString())
		if !errors.Is(err, ErrItemNotFound) {
			t.Errorf("err = %v, want ErrItemNotFound", err)
		}
	})
}

func TestListAndDeleteItems(t *testing.T) {
	userID := uuid.New()
	other := uuid.New()
	ctx := authedCtx(userID)

	repo := newFakeRepo()
	s := NewService(repo)

	first, err := s.CreateItem(ctx, CreateQuickListItemDTO{Text: "Desk", Price: decimal.NewFromInt(200)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateItem(ctx, CreateQuickListItemDTO{Text: "Chair", Price: decimal.NewFromInt(120)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateItem(authedCtx(other), CreateQuickListItemDTO{Text: "Lamp", Price: decimal.NewFromInt(40)}); err != nil {
		t.Fatal(err)
	}

	items, err := s.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2 (only the caller's)", len(items))
	}

	if err := s.DeleteItem(ctx, first.ID.String()); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, err := repo.FindByID(first.ID); !errors.Is(err, ErrItemNotFound) {
		t.Error("item should be gone after delete")
	}

	t.Run("DeleteNotOwner", func(t *testing.T) {
		victim, err := s.CreateItem(ctx, CreateQuickListItemDTO{Text: "Keyboard", Price: decimal.NewFromInt(80)})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.DeleteItem(authedCtx(other), victim.ID.String()); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})
}
