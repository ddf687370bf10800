package invitation

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
	"github.com/sirupsen/logrus"
)

var (
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationExists     = errors.New("INVITATION_EXISTS")
	ErrInvitationNotPending = errors.New("invitation has already been answered")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidID            = errors.New("invalid id format")
	ErrEmailRequired        = errors.New("recipient email is required")
	ErrSelfInvitation       = errors.New("cannot invite yourself")
	ErrAlreadyMembers       = errors.New("users are already team members")
)

// Propagator fans an accepted relation out to both users' team goals. It is
// implemented by the team goal service.
type Propagator interface {
	AddMemberToUserGoals(ctx context.Context, a, b uuid.UUID) error
}

type InvitationService interface {
	SendInvitation(ctx context.Context, toEmail string) (*TeamInvitation, error)
	AcceptInvitation(ctx context.Context, id string) (*TeamInvitation, error)
	RejectInvitation(ctx context.Context, id string) (*TeamInvitation, error)
	ListPendingInvitations(ctx context.Context) ([]*TeamInvitation, error)
}

type invitationService struct {
	repo       InvitationRepository
	userRepo   user.UserRepository
	members    membership.Repository
	propagator Propagator
	sealToken  func(string) (string, error)
}

func NewService(repo InvitationRepository, userRepo user.UserRepository, members membership.Repository, propagator Propagator) InvitationService {
	return &invitationService{
		repo:       repo,
		userRepo:   userRepo,
		members:    members,
		propagator: propagator,
		sealToken:  config.Encrypt,
	}
}

func (s *invitationService) SendInvitation(ctx context.Context, toEmail string) (*TeamInvitation, error) {
	log := config.WithContext(ctx)

	claims, err := auth.GetUserClaimsFromContext(ctx)
	if err != nil {
		log.Warn("Attempt to send invitation without authentication")
		return nil, ErrUnauthorized
	}
	fromUserID := uuid.MustParse(claims.UserID)

	toEmail = strings.ToLower(strings.TrimSpace(toEmail))
	if toEmail == "" {
		return nil, ErrEmailRequired
	}
	if toEmail == strings.ToLower(claims.Email) {
		return nil, ErrSelfInvitation
	}

	pending, err := s.repo.HasPending(fromUserID, toEmail)
	if err != nil {
		log.WithError(err).Error("Failed to check for pending invitation")
		return nil, err
	}
	if pending {
		return nil, ErrInvitationExists
	}

	// When the recipient already has a profile and a relation with the
	// sender exists, the invitation would be a no-op on accept.
	if recipient, err := s.userRepo.FindByEmail(toEmail); err == nil {
		related, err := s.members.Exists(fromUserID, recipient.ID)
		if err != nil {
			log.WithError(err).Error("Failed to check existing relation")
			return nil, err
		}
		if related {
			return nil, ErrAlreadyMembers
		}
	} else if !errors.Is(err, user.ErrUserNotFound) {
		log.WithError(err).Error("Failed to look up invitation recipient")
		return nil, err
	}

	sender, err := s.userRepo.FindByID(fromUserID)
	if err != nil {
		log.WithError(err).Error("Failed to load sender profile")
		return nil, err
	}

	inv := &TeamInvitation{
		ID:         uuid.New(),
		FromUserID: fromUserID,
		FromEmail:  sender.Email,
		FromName:   sender.DisplayName,
		ToEmail:    toEmail,
		Status:     StatusPending,
		CreatedAt:  time.Now(),
	}

	// The token goes into the invitation email; sealing the id keeps the
	// link opaque without another lookup table.
	token, err := s.sealToken(inv.ID.String())
	if err != nil {
		log.WithError(err).Error("Failed to seal invitation token")
		return nil, err
	}
	inv.Token = token

	if err := s.repo.Create(inv); err != nil {
		log.WithError(err).Error("Failed to create invitation")
		return nil, err
	}

	log.WithFields(logrus.Fields{"invitation_id": inv.ID, "to_email": toEmail}).
		Info("Invitation sent")
	return inv, nil
}

func (s *invitationService) AcceptInvitation(ctx context.Context, id string) (*TeamInvitation, error) {
	log := config.WithContext(ctx)

	claims, err := auth.GetUserClaimsFromContext(ctx)
	if err != nil {
		log.Warn("Attempt to accept invitation without authentication")
		return nil, ErrUnauthorized
	}
	acceptingUserID := uuid.MustParse(claims.UserID)

	invID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	inv, err := s.repo.FindByID(invID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(inv.ToEmail, claims.Email) {
		return nil, ErrUnauthorized
	}

	// The pending check happens again under the row lock; a concurrent
	// accept or reject loses here instead of overwriting a terminal state.
	accepted, err := s.repo.AcceptWithRelation(invID, inv.FromUserID, acceptingUserID)
	if err != nil {
		if !errors.Is(err, ErrInvitationNotPending) && !errors.Is(err, ErrInvitationNotFound) {
			log.WithError(err).Error("Failed to accept invitation")
		}
		return nil, err
	}

	log.WithField("invitation_id", accepted.ID).Info("Invitation accepted")

	// The acceptance is committed; fan-out failures leave the relation in
	// place and are repaired by a later sync.
	if err := s.propagator.AddMemberToUserGoals(ctx, accepted.FromUserID, acceptingUserID); err != nil {
		log.WithError(err).Error("Membership propagation after acceptance incomplete")
		return accepted, fmt.Errorf("invitation accepted: %w", err)
	}

	return accepted, nil
}

func (s *invitationService) RejectInvitation(ctx context.Context, id string) (*TeamInvitation, error) {
	log := config.WithContext(ctx)

	claims, err := auth.GetUserClaimsFromContext(ctx)
	if err != nil {
		log.Warn("Attempt to reject invitation without authentication")
		return nil, ErrUnauthorized
	}

	invID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	inv, err := s.repo.FindByID(invID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(inv.ToEmail, claims.Email) {
		return nil, ErrUnauthorized
	}

	rejected, err := s.repo.Reject(invID)
	if err != nil {
		if !errors.Is(err, ErrInvitationNotPending) && !errors.Is(err, ErrInvitationNotFound) {
			log.WithError(err).Error("Failed to reject invitation")
		}
		return nil, err
	}

	log.WithField("invitation_id", rejected.ID).Info("Invitation rejected")
	return rejected, nil
}

func (s *invitationService) ListPendingInvitations(ctx context.Context) ([]*TeamInvitation, error) {
	log := config.WithContext(ctx)

	claims, err := auth.GetUserClaimsFromContext(ctx)
	if err != nil {
		log.Warn("Attempt to list invitations without authentication")
		return nil, ErrUnauthorized
	}

	invitations, err := s.repo.ListPendingByEmail(strings.ToLower(claims.Email))
	if err != nil {
		log.WithError(err).Error("Failed to list pending invitations")
		return nil, err
	}
	return invitations, nil
}
