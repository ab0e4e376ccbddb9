package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/core/codegen"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/srgjo27/eventpass/internal/core/ports"
)

type RegisterInput struct {
	EventID        uuid.UUID
	UserID         string
	AttendeeName   string
	InvitationCode string
}

// AdmissionService decides confirm, waitlist or pending at registration time
// and promotes from the waitlist when a confirmed seat is released.
type AdmissionService struct {
	base
}

func NewAdmissionService(d Deps) *AdmissionService {
	return &AdmissionService{base: newBase(d, "admission")}
}

func (s *AdmissionService) Register(ctx context.Context, in RegisterInput) (*domain.Registration, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	if in.UserID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidInput)
	}

	var reg *domain.Registration
	err := s.atomically(ctx, "register", func(tx ports.Tx) error {
		now := s.now()

		event, err := tx.Events().GetForUpdate(ctx, in.EventID)
		if err != nil {
			return err
		}

		var inv *domain.InvitationCode
		if in.InvitationCode != "" {
			inv, err = tx.Invitations().GetByCode(ctx, codegen.Normalize(in.InvitationCode))
			if err != nil {
				return err
			}
			if inv.EventID != event.ID {
				return fmt.Errorf("invitation code belongs to another event: %w", domain.ErrNotFound)
			}
		}

		if _, err := tx.Registrations().FindActive(ctx, event.ID, in.UserID); err == nil {
			return domain.ErrDuplicateRegistration
		} else if !isNotFound(err) {
			return err
		}

		r := domain.NewRegistration(event.ID, in.UserID, in.AttendeeName, now)
		if inv != nil {
			r.InvitationCodeID = &inv.ID
		}
		if !event.RequiresApproval {
			if err := s.admit(ctx, tx, event, r); err != nil {
				return err
			}
		}

		if err := tx.Registrations().Create(ctx, r); err != nil {
			return err
		}
		if inv != nil {
			if err := tx.Invitations().IncrementUses(ctx, inv.ID); err != nil {
				return err
			}
		}
		reg = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "registration created",
		"event_id", reg.EventID, "registration_id", reg.ID, "status", reg.Status)
	s.invalidate(ctx, reg.EventID)
	s.notify(ctx, notificationFor(reg.Status), reg.HolderID, reg.EventID, reg.ID, nil)
	return reg, nil
}

// admit confirms r when the event has room, otherwise queues it at the tail
// of the waitlist. The event row must be locked by the caller.
func (s *AdmissionService) admit(ctx context.Context, tx ports.Tx, event *domain.Event, r *domain.Registration) error {
	now := s.now()
	confirmed, err := tx.Registrations().CountByStatus(ctx, event.ID, domain.RegistrationConfirmed)
	if err != nil {
		return err
	}

	if event.HasRoom(confirmed) {
		code, err := s.mintCheckinCode(ctx, tx, event.ID)
		if err != nil {
			return err
		}
		return r.Confirm(code, now)
	}

	if !event.WaitlistEnabled {
		return domain.ErrCapacityExceeded
	}
	last, err := tx.Registrations().MaxWaitlistPosition(ctx, event.ID)
	if err != nil {
		return err
	}
	return r.Waitlist(last+1, now)
}

type cancelOutcome struct {
	reg      *domain.Registration
	promoted *domain.Registration
	voided   *domain.TransferOffer
	noop     bool
}

// Cancel releases userID's registration. Releasing a confirmed seat promotes
// the head of the waitlist in the same unit.
func (s *AdmissionService) Cancel(ctx context.Context, registrationID uuid.UUID, userID string) (*domain.Registration, error) {
	var out cancelOutcome
	err := s.atomically(ctx, "cancel", func(tx ports.Tx) error {
		out = cancelOutcome{}
		now := s.now()

		peek, err := tx.Registrations().Get(ctx, registrationID)
		if err != nil {
			return err
		}
		event, err := tx.Events().GetForUpdate(ctx, peek.EventID)
		if err != nil {
			return err
		}
		reg, err := tx.Registrations().GetForUpdate(ctx, registrationID)
		if err != nil {
			return err
		}
		if reg.HolderID != userID {
			return domain.ErrNotOwner
		}
		if reg.Status == domain.RegistrationCancelled {
			out.reg, out.noop = reg, true
			return nil
		}

		wasConfirmed := reg.Status == domain.RegistrationConfirmed
		var vacated int
		if reg.Status == domain.RegistrationWaitlisted && reg.WaitlistPosition != nil {
			vacated = *reg.WaitlistPosition
		}

		if err := reg.Cancel(now); err != nil {
			return err
		}
		if err := tx.Registrations().Update(ctx, reg); err != nil {
			return err
		}
		out.reg = reg

		offer, err := tx.Offers().FindPendingForUpdate(ctx, reg.ID)
		switch {
		case err == nil:
			offer.Void(now)
			if err := tx.Offers().Update(ctx, offer); err != nil {
				return err
			}
			out.voided = offer
		case !isNotFound(err):
			return err
		}

		if vacated > 0 {
			if err := tx.Registrations().ShiftWaitlist(ctx, event.ID, vacated, now); err != nil {
				return err
			}
		}
		if wasConfirmed {
			promoted, err := s.promote(ctx, tx, event)
			if err != nil {
				return err
			}
			out.promoted = promoted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.noop {
		return out.reg, nil
	}

	reg := out.reg
	s.log.InfoContext(ctx, "registration cancelled", "event_id", reg.EventID, "registration_id", reg.ID)
	s.invalidate(ctx, reg.EventID)
	s.notify(ctx, domain.NotifyRegistrationCancelled, reg.HolderID, reg.EventID, reg.ID, nil)
	if out.voided != nil {
		s.notify(ctx, domain.NotifyOfferCancelled, out.voided.FromUserID, reg.EventID, reg.ID, &out.voided.ID)
	}
	if p := out.promoted; p != nil {
		s.log.InfoContext(ctx, "waitlist promoted", "event_id", p.EventID, "registration_id", p.ID)
		s.notify(ctx, domain.NotifyRegistrationPromoted, p.HolderID, p.EventID, p.ID, nil)
	}
	return reg, nil
}

// promote confirms the lowest waitlist position if the event has room and
// closes the gap behind it. It returns nil when nothing was promoted.
func (s *AdmissionService) promote(ctx context.Context, tx ports.Tx, event *domain.Event) (*domain.Registration, error) {
	confirmed, err := tx.Registrations().CountByStatus(ctx, event.ID, domain.RegistrationConfirmed)
	if err != nil {
		return nil, err
	}
	if !event.HasRoom(confirmed) {
		return nil, nil
	}

	next, err := tx.Registrations().FirstWaitlistedForUpdate(ctx, event.ID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	position := *next.WaitlistPosition

	code, err := s.mintCheckinCode(ctx, tx, event.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := next.Confirm(code, now); err != nil {
		return nil, err
	}
	if err := tx.Registrations().Update(ctx, next); err != nil {
		return nil, err
	}
	if err := tx.Registrations().ShiftWaitlist(ctx, event.ID, position, now); err != nil {
		return nil, err
	}
	return next, nil
}

// Approve confirms a pending registration of an approval-gated event.
func (s *AdmissionService) Approve(ctx context.Context, registrationID uuid.UUID) (*domain.Registration, error) {
	var reg *domain.Registration
	err := s.atomically(ctx, "approve", func(tx ports.Tx) error {
		r, event, err := s.lockPending(ctx, tx, registrationID)
		if err != nil {
			return err
		}
		confirmed, err := tx.Registrations().CountByStatus(ctx, event.ID, domain.RegistrationConfirmed)
		if err != nil {
			return err
		}
		if !event.HasRoom(confirmed) {
			return domain.ErrCapacityExceeded
		}
		code, err := s.mintCheckinCode(ctx, tx, event.ID)
		if err != nil {
			return err
		}
		if err := r.Confirm(code, s.now()); err != nil {
			return err
		}
		if err := tx.Registrations().Update(ctx, r); err != nil {
			return err
		}
		reg = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "registration approved", "event_id", reg.EventID, "registration_id", reg.ID)
	s.invalidate(ctx, reg.EventID)
	s.notify(ctx, domain.NotifyRegistrationConfirmed, reg.HolderID, reg.EventID, reg.ID, nil)
	return reg, nil
}

func (s *AdmissionService) Reject(ctx context.Context, registrationID uuid.UUID) (*domain.Registration, error) {
	var reg *domain.Registration
	err := s.atomically(ctx, "reject", func(tx ports.Tx) error {
		r, _, err := s.lockPending(ctx, tx, registrationID)
		if err != nil {
			return err
		}
		if err := r.Reject(s.now()); err != nil {
			return err
		}
		if err := tx.Registrations().Update(ctx, r); err != nil {
			return err
		}
		reg = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "registration rejected", "event_id", reg.EventID, "registration_id", reg.ID)
	s.notify(ctx, domain.NotifyRegistrationRejected, reg.HolderID, reg.EventID, reg.ID, nil)
	return reg, nil
}

func (s *AdmissionService) lockPending(ctx context.Context, tx ports.Tx, id uuid.UUID) (*domain.Registration, *domain.Event, error) {
	peek, err := tx.Registrations().Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	event, err := tx.Events().GetForUpdate(ctx, peek.EventID)
	if err != nil {
		return nil, nil, err
	}
	reg, err := tx.Registrations().GetForUpdate(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if reg.Status != domain.RegistrationPending {
		return nil, nil, domain.ErrNotPending
	}
	return reg, event, nil
}

// Capacity serves from the cache when it can; the snapshot is advisory and
// never consulted by admission. A refill is tagged with the cache generation
// read before the ledger, so an invalidation that lands in between wins.
func (s *AdmissionService) Capacity(ctx context.Context, eventID uuid.UUID) (*domain.Capacity, error) {
	var (
		generation int64
		refill     bool
	)
	if s.cache != nil {
		c, err := s.cache.Get(ctx, eventID)
		switch {
		case err != nil:
			s.log.WarnContext(ctx, "capacity cache read failed", "event_id", eventID, "error", err)
		case c != nil:
			return c, nil
		default:
			generation, err = s.cache.Generation(ctx, eventID)
			if err != nil {
				s.log.WarnContext(ctx, "capacity cache generation read failed", "event_id", eventID, "error", err)
			}
			refill = err == nil
		}
	}

	var snapshot domain.Capacity
	err := s.store.Do(ctx, func(tx ports.Tx) error {
		event, err := tx.Events().Get(ctx, eventID)
		if err != nil {
			return err
		}
		confirmed, err := tx.Registrations().CountByStatus(ctx, eventID, domain.RegistrationConfirmed)
		if err != nil {
			return err
		}
		waitlisted, err := tx.Registrations().CountByStatus(ctx, eventID, domain.RegistrationWaitlisted)
		if err != nil {
			return err
		}
		snapshot = domain.NewCapacity(event, confirmed, waitlisted)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if refill {
		stored, err := s.cache.Set(ctx, snapshot, generation)
		if err != nil {
			s.log.WarnContext(ctx, "capacity cache write failed", "event_id", eventID, "error", err)
		} else if !stored {
			s.log.DebugContext(ctx, "capacity snapshot superseded", "event_id", eventID)
		}
	}
	return &snapshot, nil
}

// Waitlist lists waitlisted registrations by position.
func (s *AdmissionService) Waitlist(ctx context.Context, eventID uuid.UUID) ([]domain.Registration, error) {
	var list []domain.Registration
	err := s.store.Do(ctx, func(tx ports.Tx) error {
		if _, err := tx.Events().Get(ctx, eventID); err != nil {
			return err
		}
		var err error
		list, err = tx.Registrations().ListWaitlist(ctx, eventID)
		return err
	})
	return list, err
}

func (s *AdmissionService) Get(ctx context.Context, registrationID uuid.UUID) (*domain.Registration, error) {
	var reg *domain.Registration
	err := s.store.Do(ctx, func(tx ports.Tx) error {
		var err error
		reg, err = tx.Registrations().Get(ctx, registrationID)
		return err
	})
	return reg, err
}

func notificationFor(status domain.RegistrationStatus) domain.NotificationType {
	switch status {
	case domain.RegistrationConfirmed:
		return domain.NotifyRegistrationConfirmed
	case domain.RegistrationWaitlisted:
		return domain.NotifyRegistrationWaitlisted
	default:
		return domain.NotifyRegistrationPending
	}
}
