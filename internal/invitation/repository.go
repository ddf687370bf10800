package invitation

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/metabuy/metabuy-api/internal/membership"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvitationRepository interface {
	Create(inv *TeamInvitation) error
	FindByID(id uuid.UUID) (*TeamInvitation, error)
	HasPending(fromUserID uuid.UUID, toEmail string) (bool, error)
	ListPendingByEmail(email string) ([]*TeamInvitation, error)

	// AcceptWithRelation locks the invitation row, re-checks that it is
	// still pending, flips it to accepted and creates the membership
	// relation — all in one transaction. A row that left pending between
	// the caller's read and the lock fails with ErrInvitationNotPending.
	AcceptWithRelation(id uuid.UUID, a, b uuid.UUID) (*TeamInvitation, error)
	// Reject flips pending→rejected under the same locked re-check.
	Reject(id uuid.UUID) (*TeamInvitation, error)
}

type invitationRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(inv *TeamInvitation) error {
	return r.db.Create(inv).Error
}

func (r *invitationRepository) FindByID(id uuid.UUID) (*TeamInvitation, error) {
	var inv TeamInvitation
	if err := r.db.First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) HasPending(fromUserID uuid.UUID, toEmail string) (bool, error) {
	var count int64
	err := r.db.Model(&TeamInvitation{}).
		Where("from_user_id = ? AND to_email = ? AND status = ?", fromUserID, toEmail, StatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *invitationRepository) ListPendingByEmail(email string) ([]*TeamInvitation, error) {
	var invitations []*TeamInvitation
	err := r.db.
		Where("to_email = ? AND status = ?", email, StatusPending).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

// lockPending loads the row FOR UPDATE inside tx and verifies it has not
// left the pending state.
func lockPending(tx *gorm.DB, id uuid.UUID) (*TeamInvitation, error) {
	var inv TeamInvitation
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	if inv.Status != StatusPending {
		return nil, ErrInvitationNotPending
	}
	return &inv, nil
}

func (r *invitationRepository) AcceptWithRelation(id uuid.UUID, a, b uuid.UUID) (*TeamInvitation, error) {
	var accepted *TeamInvitation
	err := r.db.Transaction(func(tx *gorm.DB) error {
		inv, err := lockPending(tx, id)
		if err != nil {
			return err
		}

		now := time.Now()
		inv.Status = StatusAccepted
		inv.RespondedAt = &now
		if err := tx.Save(inv).Error; err != nil {
			return err
		}

		if err := membership.NewRepository(tx).Create(a, b); err != nil {
			return err
		}
		accepted = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

func (r *invitationRepository) Reject(id uuid.UUID) (*TeamInvitation, error) {
	var rejected *TeamInvitation
	err := r.db.Transaction(func(tx *gorm.DB) error {
		inv, err := lockPending(tx, id)
		if err != nil {
			return err
		}

		now := time.Now()
		inv.Status = StatusRejected
		inv.RespondedAt = &now
		if err := tx.Save(inv).Error; err != nil {
			return err
		}
		rejected = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}
