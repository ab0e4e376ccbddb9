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

// TransferService runs the offer protocol. Every path that changes an offer
// locks the registration first and the offer second.
type TransferService struct {
	base
}

func NewTransferService(d Deps) *TransferService {
	return &TransferService{base: newBase(d, "transfer")}
}

func (s *TransferService) CreateOffer(ctx context.Context, registrationID uuid.UUID, fromUserID string) (*domain.TransferOffer, error) {
	var offer *domain.TransferOffer
	err := s.atomically(ctx, "create_offer", func(tx ports.Tx) error {
		now := s.now()

		reg, err := tx.Registrations().GetForUpdate(ctx, registrationID)
		if err != nil {
			return err
		}
		if reg.HolderID != fromUserID {
			return domain.ErrNotOwner
		}

		existing, err := tx.Offers().FindPendingForUpdate(ctx, reg.ID)
		switch {
		case err == nil:
			// A lapsed offer no longer blocks a new one.
			if !existing.Expire(now) {
				return domain.ErrAlreadyTransferring
			}
			if err := tx.Offers().Update(ctx, existing); err != nil {
				return err
			}
		case !isNotFound(err):
			return err
		}

		if err := reg.EnsureTransferable(fromUserID); err != nil {
			return err
		}

		code, err := s.codes.Unique(ctx, s.opts.OfferCodeLength, tx.Offers().CodeTaken)
		if err != nil {
			return err
		}
		o := domain.NewTransferOffer(reg, code, now, s.opts.OfferWindow)
		if err := tx.Offers().Create(ctx, o); err != nil {
			return err
		}
		offer = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "transfer offer created",
		"event_id", offer.EventID, "registration_id", offer.RegistrationID, "offer_id", offer.ID)
	if s.notifier != nil {
		if err := s.notifier.BroadcastOffer(ctx, offer); err != nil {
			s.log.WarnContext(ctx, "offer broadcast failed", "offer_id", offer.ID, "error", err)
		}
	}
	s.notify(ctx, domain.NotifyOfferCreated, offer.FromUserID, offer.EventID, offer.RegistrationID, &offer.ID)
	return offer, nil
}

// AcceptOffer hands the registration to toUserID. Exactly one acceptance of
// an offer can commit; the losers see ErrNotPending. The accepted holder gets
// a fresh check-in code and the previous one is retired for the event.
func (s *TransferService) AcceptOffer(ctx context.Context, offerID uuid.UUID, toUserID, attendeeName string) (*domain.Registration, error) {
	toUserID = strings.TrimSpace(toUserID)
	if toUserID == "" {
		return nil, fmt.Errorf("recipient is required: %w", domain.ErrInvalidInput)
	}

	var (
		reg   *domain.Registration
		offer *domain.TransferOffer
	)
	err := s.atomically(ctx, "accept_offer", func(tx ports.Tx) error {
		now := s.now()

		peek, err := tx.Offers().Get(ctx, offerID)
		if err != nil {
			return err
		}
		r, err := tx.Registrations().GetForUpdate(ctx, peek.RegistrationID)
		if err != nil {
			return err
		}
		o, err := tx.Offers().GetForUpdate(ctx, offerID)
		if err != nil {
			return err
		}

		if err := o.Accept(toUserID, now); err != nil {
			return err
		}
		if _, err := tx.Registrations().FindActive(ctx, r.EventID, toUserID); err == nil {
			return domain.ErrDuplicateRegistration
		} else if !isNotFound(err) {
			return err
		}
		if err := r.EnsureTransferable(o.FromUserID); err != nil {
			return domain.ErrNotTransferable
		}

		code, err := s.mintCheckinCode(ctx, tx, r.EventID)
		if err != nil {
			return err
		}
		if r.CheckinCode != nil {
			if err := tx.Registrations().RetireCheckinCode(ctx, r.EventID, *r.CheckinCode, r.ID); err != nil {
				return err
			}
		}
		r.Reassign(toUserID, attendeeName, code, now)

		if err := tx.Registrations().Update(ctx, r); err != nil {
			return err
		}
		if err := tx.Offers().Update(ctx, o); err != nil {
			return err
		}
		reg, offer = r, o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "transfer offer accepted",
		"event_id", reg.EventID, "registration_id", reg.ID, "offer_id", offer.ID)
	s.notify(ctx, domain.NotifyOfferAccepted, offer.FromUserID, reg.EventID, reg.ID, &offer.ID)
	s.notify(ctx, domain.NotifyOfferAccepted, reg.HolderID, reg.EventID, reg.ID, &offer.ID)
	return reg, nil
}

// ClaimByCode resolves a shared offer code and accepts it.
func (s *TransferService) ClaimByCode(ctx context.Context, code, toUserID, attendeeName string) (*domain.Registration, error) {
	offer, err := s.lookupCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.AcceptOffer(ctx, offer.ID, toUserID, attendeeName)
}

// GetOfferByCode resolves a claim link to its offer, with the same lazy
// status as GetOffer.
func (s *TransferService) GetOfferByCode(ctx context.Context, code string) (*domain.TransferOffer, error) {
	offer, err := s.lookupCode(ctx, code)
	if err != nil {
		return nil, err
	}
	offer.Status = offer.EffectiveStatus(s.now())
	return offer, nil
}

func (s *TransferService) lookupCode(ctx context.Context, code string) (*domain.TransferOffer, error) {
	code = codegen.Normalize(code)
	if code == "" {
		return nil, fmt.Errorf("code is required: %w", domain.ErrInvalidInput)
	}

	var offer *domain.TransferOffer
	err := s.store.Do(ctx, func(tx ports.Tx) error {
		var err error
		offer, err = tx.Offers().GetByCode(ctx, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *TransferService) CancelOffer(ctx context.Context, offerID uuid.UUID, userID string) (*domain.TransferOffer, error) {
	var offer *domain.TransferOffer
	err := s.atomically(ctx, "cancel_offer", func(tx ports.Tx) error {
		peek, err := tx.Offers().Get(ctx, offerID)
		if err != nil {
			return err
		}
		if _, err := tx.Registrations().GetForUpdate(ctx, peek.RegistrationID); err != nil {
			return err
		}
		o, err := tx.Offers().GetForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		if err := o.Cancel(userID, s.now()); err != nil {
			return err
		}
		if err := tx.Offers().Update(ctx, o); err != nil {
			return err
		}
		offer = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "transfer offer cancelled", "offer_id", offer.ID, "registration_id", offer.RegistrationID)
	s.notify(ctx, domain.NotifyOfferCancelled, offer.FromUserID, offer.EventID, offer.RegistrationID, &offer.ID)
	return offer, nil
}

// GetOffer reports the offer as of now: a pending offer past its window is
// returned as expired whether or not the sweeper has reached it.
func (s *TransferService) GetOffer(ctx context.Context, offerID uuid.UUID) (*domain.TransferOffer, error) {
	var offer *domain.TransferOffer
	err := s.store.Do(ctx, func(tx ports.Tx) error {
		var err error
		offer, err = tx.Offers().Get(ctx, offerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	offer.Status = offer.EffectiveStatus(s.now())
	return offer, nil
}

// ExpireStaleOffers persists the expired status of lapsed offers.
func (s *TransferService) ExpireStaleOffers(ctx context.Context) (int, error) {
	var n int
	err := s.atomically(ctx, "expire_offers", func(tx ports.Tx) error {
		var err error
		n, err = tx.Offers().ExpireLapsed(ctx, s.now())
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.InfoContext(ctx, "expired lapsed transfer offers", "count", n)
	}
	return n, nil
}
