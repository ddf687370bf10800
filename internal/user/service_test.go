package user

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	users map[uuid.UUID]*User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[uuid.UUID]*User)}
}

func (f *fakeRepo) Create(u *User) error {
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(id uuid.UUID) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) FindByEmail(email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepo) Update(u *User) error {
	if _, ok := f.users[u.ID]; !ok {
		return ErrUserNotFound
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepo) IncrementTotalSavings(id uuid.UUID, delta decimal.Decimal) error {
	u, ok := f.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.TotalSavings = u.TotalSavings.Add(delta)
	return nil
}

func (f *fakeRepo) IncrementActiveGoals(id uuid.UUID, delta int) error {
	u, ok := f.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.ActiveGoals += delta
	if u.ActiveGoals < 0 {
		u.ActiveGoals = 0
	}
	return nil
}

type fakeGoalStats struct {
	saved  decimal.Decimal
	active int64
}

func (f *fakeGoalStats) SumSavedByUser(uuid.UUID) (decimal.Decimal, error) { return f.saved, nil }
func (f *fakeGoalStats) CountActiveByUser(uuid.UUID) (int64, error)       { return f.active, nil }

type fakeTeamStats struct {
	contributed decimal.Decimal
}

func (f *fakeTeamStats) SumContributionsByUser(uuid.UUID) (decimal.Decimal, error) {
	return f.contributed, nil
}

func TestUpsertProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesNewProfile", func(t *testing.T) {
		repo := newFakeRepo()
		s := NewService(repo, &fakeGoalStats{}, &fakeTeamStats{})

		u, err := s.UpsertProfile(ctx, "Alice@Example.COM", "Alice", "https://img/alice.png")
		if err != nil {
			t.Fatalf("UpsertProfile: %v", err)
		}
		if u.Email != "alice@example.com" {
			t.Errorf("email = %q, want normalized lowercase", u.Email)
		}
		if !u.TotalSavings.IsZero() || u.ActiveGoals != 0 {
			t.Error("new profile should start with zero counters")
		}
	})

	t.Run("DisplayNameFallsBackToEmailPrefix", func(t *testing.T) {
		s := NewService(newFakeRepo(), &fakeGoalStats{}, &fakeTeamStats{})
		u, err := s.UpsertProfile(ctx, "bob@example.com", "", "")
		if err != nil {
			t.Fatalf("UpsertProfile: %v", err)
		}
		if u.DisplayName != "bob" {
			t.Errorf("display name = %q, want %q", u.DisplayName, "bob")
		}
	})

	t.Run("ExistingProfileKeepsCounters", func(t *testing.T) {
		repo := newFakeRepo()
		s := NewService(repo, &fakeGoalStats{}, &fakeTeamStats{})

		first, err := s.UpsertProfile(ctx, "carol@example.com", "Carol", "")
		if err != nil {
			t.Fatalf("first upsert: %v", err)
		}
		if err := repo.IncrementTotalSavings(first.ID, decimal.NewFromInt(250)); err != nil {
			t.Fatal(err)
		}

		second, err := s.UpsertProfile(ctx, "carol@example.com", "Carol B.", "https://img/carol.png")
		if err != nil {
			t.Fatalf("second upsert: %v", err)
		}
		if second.ID != first.ID {
			t.Error("upsert must not create a second profile for the same email")
		}
		if second.DisplayName != "Carol B." {
			t.Errorf("display name = %q, want refreshed value", second.DisplayName)
		}
		if !second.TotalSavings.Equal(decimal.NewFromInt(250)) {
			t.Errorf("total savings = %s, want 250 preserved", second.TotalSavings)
		}
	})

	t.Run("EmptyEmail", func(t *testing.T) {
		s := NewService(newFakeRepo(), &fakeGoalStats{}, &fakeTeamStats{})
		_, err := s.UpsertProfile(ctx, "  ", "X", "")
		if !errors.Is(err, ErrEmailRequired) {
			t.Errorf("err = %v, want ErrEmailRequired", err)
		}
	})
}

func TestRecomputeStats(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()

	id := uuid.New()
	if err := repo.Create(&User{
		ID:           id,
		Email:        "dora@example.com",
		TotalSavings: decimal.NewFromInt(99999), // stale
		ActiveGoals:  42,                        // stale
	}); err != nil {
		t.Fatal(err)
	}

	s := NewService(repo,
		&fakeGoalStats{saved: decimal.NewFromInt(1200), active: 3},
		&fakeTeamStats{contributed: decimal.NewFromInt(800)},
	)

	u, err := s.RecomputeStats(ctx, id)
	if err != nil {
		t.Fatalf("RecomputeStats: %v", err)
	}
	if !u.TotalSavings.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("total savings = %s, want 2000 (goals + team contributions)", u.TotalSavings)
	}
	if u.ActiveGoals != 3 {
		t.Errorf("active goals = %d, want 3", u.ActiveGoals)
	}

	t.Run("UnknownUser", func(t *testing.T) {
		_, err := s.RecomputeStats(ctx, uuid.New())
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("err = %v, want ErrUserNotFound", err)
		}
	})
}
