package invitation

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metabuy/metabuy-api/internal/auth"
	"github.com/metabuy/metabuy-api/internal/team_goal"
	"github.com/metabuy/metabuy-api/internal/user"
	"github.com/shopspring/decimal"
)

// fakeInvitationRepo mirrors the real repository's contract: the accept and
// reject paths re-check the pending status before flipping it, so a row that
// already reached a terminal state can never be overwritten.
type fakeInvitationRepo struct {
	invitations map[uuid.UUID]*TeamInvitation
	relations   map[[2]uuid.UUID]bool
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{
		invitations: make(map[uuid.UUID]*TeamInvitation),
		relations:   make(map[[2]uuid.UUID]bool),
	}
}

func (f *fakeInvitationRepo) Create(inv *TeamInvitation) error {
	cp := *inv
	f.invitations[inv.ID] = &cp
	return nil
}

func (f *fakeInvitationRepo) FindByID(id uuid.UUID) (*TeamInvitation, error) {
	inv, ok := f.invitations[id]
	if !ok {
		return nil, ErrInvitationNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitationRepo) HasPending(fromUserID uuid.UUID, toEmail string) (bool, error) {
	for _, inv := range f.invitations {
		if inv.FromUserID == fromUserID && inv.ToEmail == toEmail && inv.Status == StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInvitationRepo) ListPendingByEmail(email string) ([]*TeamInvitation, error) {
	var out []*TeamInvitation
	for _, inv := range f.invitations {
		if inv.ToEmail == email && inv.Status == StatusPending {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeInvitationRepo) lockPending(id uuid.UUID) (*TeamInvitation, error) {
	inv, ok := f.invitations[id]
	if !ok {
		return nil, ErrInvitationNotFound
	}
	if inv.Status != StatusPending {
		return nil, ErrInvitationNotPending
	}
	return inv, nil
}

func (f *fakeInvitationRepo) AcceptWithRelation(id uuid.UUID, a, b uuid.UUID) (*TeamInvitation, error) {
	inv, err := f.lockPending(id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	inv.Status = StatusAccepted
	inv.RespondedAt = &now
	if a.String() > b.String() {
		a, b = b, a
	}
	f.relations[[2]uuid.UUID{a, b}] = true
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitationRepo) Reject(id uuid.UUID) (*TeamInvitation, error) {
	inv, err := f.lockPending(id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	inv.Status = StatusRejected
	inv.RespondedAt = &now
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitationRepo) hasRelation(a, b uuid.UUID) bool {
	if a.String() > b.String() {
		a, b = b, a
	}
	return f.relations[[2]uuid.UUID{a, b}]
}

type fakeUserRepo struct {
	users map[uuid.UUID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*user.User)}
}

func (f *fakeUserRepo) Create(u *user.User) error {
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) FindByID(id uuid.UUID) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) FindByEmail(email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUserRepo) Update(u *user.User) error                              { return nil }
func (f *fakeUserRepo) IncrementTotalSavings(uuid.UUID, decimal.Decimal) error { return nil }
func (f *fakeUserRepo) IncrementActiveGoals(uuid.UUID, int) error              { return nil }

type fakeMembers struct {
	pairs map[[2]uuid.UUID]bool
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{pairs: make(map[[2]uuid.UUID]bool)}
}

func (f *fakeMembers) key(a, b uuid.UUID) [2]uuid.UUID {
	if a.String() > b.String() {
		a, b = b, a
	}
	return [2]uuid.UUID{a, b}
}

func (f *fakeMembers) Create(a, b uuid.UUID) error {
	f.pairs[f.key(a, b)] = true
	return nil
}

func (f *fakeMembers) Exists(a, b uuid.UUID) (bool, error) {
	return f.pairs[f.key(a, b)], nil
}

func (f *fakeMembers) ListPartnerIDs(userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for pair := range f.pairs {
		if pair[0] == userID {
			out = append(out, pair[1])
		} else if pair[1] == userID {
			out = append(out, pair[0])
		}
	}
	return out, nil
}

type fakePropagator struct {
	calls [][2]uuid.UUID
	err   error
}

func (f *fakePropagator) AddMemberToUserGoals(_ context.Context, a, b uuid.UUID) error {
	f.calls = append(f.calls, [2]uuid.UUID{a, b})
	return f.err
}

func newTestService(repo InvitationRepository, users user.UserRepository, members *fakeMembers, prop Propagator) InvitationService {
	return &invitationService{
		repo:       repo,
		userRepo:   users,
		members:    members,
		propagator: prop,
		sealToken: func(s string) (string, error) {
			return "sealed:" + s, nil
		},
	}
}

func authedCtx(userID uuid.UUID, email string) context.Context {
	return auth.WithUserClaims(context.Background(), &auth.UserClaims{
		UserID: userID.String(),
		Email:  email,
	})
}

func seedUser(t *testing.T, users *fakeUserRepo, email, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := users.Create(&user.User{ID: id, Email: email, DisplayName: name}); err != nil {
		t.Fatal(err)
	}
	return id
}

func TestSendInvitation(t *testing.T) {
	repo := newFakeInvitationRepo()
	users := newFakeUserRepo()
	members := newFakeMembers()
	s := newTestService(repo, users, members, &fakePropagator{})

	senderID := seedUser(t, users, "alice@example.com", "Alice")
	ctx := authedCtx(senderID, "alice@example.com")

	t.Run("Success", func(t *testing.T) {
		inv, err := s.SendInvitation(ctx, "Bob@Example.com")
		if err != nil {
			t.Fatalf("SendInvitation: %v", err)
		}
		if inv.ToEmail != "bob@example.com" {
			t.Errorf("to email = %q, want normalized lowercase", inv.ToEmail)
		}
		if inv.FromEmail != "alice@example.com" || inv.FromName != "Alice" {
			t.Errorf("sender fields not resolved from profile: %q / %q", inv.FromEmail, inv.FromName)
		}
		if inv.Status != StatusPending {
			t.Errorf("status = %q, want pending", inv.Status)
		}
		if !strings.HasPrefix(inv.Token, "sealed:") {
			t.Errorf("token should be sealed, got %q", inv.Token)
		}
	})

	t.Run("DuplicatePendingRejected", func(t *testing.T) {
		_, err := s.SendInvitation(ctx, "bob@example.com")
		if !errors.Is(err, ErrInvitationExists) {
			t.Errorf("err = %v, want ErrInvitationExists", err)
		}
	})

	t.Run("ExistingPartnerRejected", func(t *testing.T) {
		partnerID := seedUser(t, users, "carol@example.com", "Carol")
		_ = members.Create(senderID, partnerID)

		_, err := s.SendInvitation(ctx, "carol@example.com")
		if !errors.Is(err, ErrAlreadyMembers) {
			t.Errorf("err = %v, want ErrAlreadyMembers", err)
		}
	})

	t.Run("SelfInvitationRejected", func(t *testing.T) {
		_, err := s.SendInvitation(ctx, "alice@example.com")
		if !errors.Is(err, ErrSelfInvitation) {
			t.Errorf("err = %v, want ErrSelfInvitation", err)
		}
	})

	t.Run("EmptyEmail", func(t *testing.T) {
		_, err := s.SendInvitation(ctx, "   ")
		if !errors.Is(err, ErrEmailRequired) {
			t.Errorf("err = %v, want ErrEmailRequired", err)
		}
	})
}

func TestAcceptInvitation(t *testing.T) {
	setup := func(t *testing.T, prop Propagator) (InvitationService, *fakeInvitationRepo, uuid.UUID, uuid.UUID, *TeamInvitation) {
		repo := newFakeInvitationRepo()
		users := newFakeUserRepo()
		s := newTestService(repo, users, newFakeMembers(), prop)

		senderID := seedUser(t, users, "alice@example.com", "Alice")
		receiverID := seedUser(t, users, "bob@example.com", "Bob")

		inv, err := s.SendInvitation(authedCtx(senderID, "alice@example.com"), "bob@example.com")
		if err != nil {
			t.Fatalf("SendInvitation: %v", err)
		}
		return s, repo, senderID, receiverID, inv
	}

	t.Run("AcceptCreatesRelation", func(t *testing.T) {
		prop := &fakePropagator{}
		s, repo, senderID, receiverID, inv := setup(t, prop)

		accepted, err := s.AcceptInvitation(authedCtx(receiverID, "bob@example.com"), inv.ID.String())
		if err != nil {
			t.Fatalf("AcceptInvitation: %v", err)
		}
		if accepted.Status != StatusAccepted {
			t.Errorf("status = %q, want accepted", accepted.Status)
		}
		if accepted.RespondedAt == nil {
			t.Error("responded_at should be set")
		}
		if !repo.hasRelation(senderID, receiverID) {
			t.Error("membership relation should exist after acceptance")
		}
		if len(prop.calls) != 1 {
			t.Fatalf("propagator calls = %d, want 1", len(prop.calls))
		}
	})

	t.Run("SecondAcceptRejected", func(t *testing.T) {
		s, _, _, receiverID, inv := setup(t, &fakePropagator{})
		ctx := authedCtx(receiverID, "bob@example.com")

		if _, err := s.AcceptInvitation(ctx, inv.ID.String()); err != nil {
			t.Fatalf("first accept: %v", err)
		}
		_, err := s.AcceptInvitation(ctx, inv.ID.String())
		if !errors.Is(err, ErrInvitationNotPending) {
			t.Errorf("err = %v, want ErrInvitationNotPending", err)
		}
	})

	t.Run("AcceptAfterRejectFails", func(t *testing.T) {
		s, repo, senderID, receiverID, inv := setup(t, &fakePropagator{})
		ctx := authedCtx(receiverID, "bob@example.com")

		if _, err := s.RejectInvitation(ctx, inv.ID.String()); err != nil {
			t.Fatalf("reject: %v", err)
		}
		_, err := s.AcceptInvitation(ctx, inv.ID.String())
		if !errors.Is(err, ErrInvitationNotPending) {
			t.Fatalf("err = %v, want ErrInvitationNotPending", err)
		}
		if repo.hasRelation(senderID, receiverID) {
			t.Error("a rejected invitation must never yield a relation")
		}
		stored, _ := repo.FindByID(inv.ID)
		if stored.Status != StatusRejected {
			t.Errorf("status = %q, terminal state must not be overwritten", stored.Status)
		}
	})

	t.Run("WrongRecipientRejected", func(t *testing.T) {
		s, _, _, _, inv := setup(t, &fakePropagator{})
		_, err := s.AcceptInvitation(authedCtx(uuid.New(), "mallory@example.com"), inv.ID.String())
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("PropagationFailureKeepsAcceptance", func(t *testing.T) {
		prop := &fakePropagator{err: team_goal.ErrPropagationIncomplete}
		s, repo, senderID, receiverID, inv := setup(t, prop)

		accepted, err := s.AcceptInvitation(authedCtx(receiverID, "bob@example.com"), inv.ID.String())
		if !errors.Is(err, team_goal.ErrPropagationIncomplete) {
			t.Fatalf("err = %v, want ErrPropagationIncomplete", err)
		}
		if accepted == nil || accepted.Status != StatusAccepted {
			t.Error("acceptance should stand when only the fan-out fails")
		}
		if !repo.hasRelation(senderID, receiverID) {
			t.Error("relation should stand when only the fan-out fails")
		}
	})

	t.Run("UnknownInvitation", func(t *testing.T) {
		s, _, _, receiverID, _ := setup(t, &fakePropagator{})
		_, err := s.AcceptInvitation(authedCtx(receiverID, "bob@example.com"), uuid.NewString())
		if !errors.Is(err, ErrInvitationNotFound) {
			t.Errorf("err = %v, want ErrInvitationNotFound", err)
		}
	})
}

func TestRejectInvitation(t *testing.T) {
	repo := newFakeInvitationRepo()
	users := newFakeUserRepo()
	prop := &fakePropagator{}
	s := newTestService(repo, users, newFakeMembers(), prop)

	senderID := seedUser(t, users, "alice@example.com", "Alice")
	receiverID := seedUser(t, users, "bob@example.com", "Bob")

	inv, err := s.SendInvitation(authedCtx(senderID, "alice@example.com"), "bob@example.com")
	if err != nil {
		t.Fatalf("SendInvitation: %v", err)
	}

	rejected, err := s.RejectInvitation(authedCtx(receiverID, "bob@example.com"), inv.ID.String())
	if err != nil {
		t.Fatalf("RejectInvitation: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}
	if repo.hasRelation(senderID, receiverID) {
		t.Error("rejection must not create a relation")
	}
	if len(prop.calls) != 0 {
		t.Error("rejection must not trigger propagation")
	}

	t.Run("RejectAfterRejectFails", func(t *testing.T) {
		_, err := s.RejectInvitation(authedCtx(receiverID, "bob@example.com"), inv.ID.String())
		if !errors.Is(err, ErrInvitationNotPending) {
			t.Errorf("err = %v, want ErrInvitationNotPending", err)
		}
	})

	t.Run("RejectAfterAcceptFails", func(t *testing.T) {
		inv2, err := s.SendInvitation(authedCtx(senderID, "alice@example.com"), "bob@example.com")
		if err != nil {
			t.Fatalf("SendInvitation: %v", err)
		}
		ctx := authedCtx(receiverID, "bob@example.com")
		if _, err := s.AcceptInvitation(ctx, inv2.ID.String()); err != nil {
			t.Fatalf("accept: %v", err)
		}

		_, err = s.RejectInvitation(ctx, inv2.ID.String())
		if !errors.Is(err, ErrInvitationNotPending) {
			t.Fatalf("err = %v, want ErrInvitationNotPending", err)
		}
		stored, _ := repo.FindByID(inv2.ID)
		if stored.Status != StatusAccepted {
			t.Errorf("status = %q, accepted state must not be overwritten by reject", stored.Status)
		}
		if !repo.hasRelation(senderID, receiverID) {
			t.Error("the relation from the acceptance must survive the late reject")
		}
	})
}

func TestListPendingInvitations(t *testing.T) {
	repo := newFakeInvitationRepo()
	users := newFakeUserRepo()
	s := newTestService(repo, users, newFakeMembers(), &fakePropagator{})

	aliceID := seedUser(t, users, "alice@example.com", "Alice")
	carolID := seedUser(t, users, "carol@example.com", "Carol")
	receiverID := seedUser(t, users, "bob@example.com", "Bob")

	if _, err := s.SendInvitation(authedCtx(aliceID, "alice@example.com"), "bob@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendInvitation(authedCtx(carolID, "carol@example.com"), "bob@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendInvitation(authedCtx(aliceID, "alice@example.com"), "dave@example.com"); err != nil {
		t.Fatal(err)
	}

	pending, err := s.ListPendingInvitations(authedCtx(receiverID, "Bob@Example.com"))
	if err != nil {
		t.Fatalf("ListPendingInvitations: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	for _, inv := range pending {
		if inv.ToEmail != "bob@example.com" {
			t.Errorf("unexpected invitation for %q", inv.ToEmail)
		}
	}
}
