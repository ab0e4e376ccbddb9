package domain

import (
	"time"

	"github.com/google/uuid"
)

type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferCancelled OfferStatus = "cancelled"
	OfferExpired   OfferStatus = "expired"
)

func (s OfferStatus) IsTerminal() bool {
	return s != OfferPending
}

type TransferOffer struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	RegistrationID uuid.UUID   `db:"registration_id" json:"registrationId"`
	EventID        uuid.UUID   `db:"event_id" json:"eventId"`
	FromUserID     string      `db:"from_user_id" json:"fromUserId"`
	ToUserID       *string     `db:"to_user_id" json:"toUserId,omitempty"`
	Code           string      `db:"code" json:"code,omitempty"`
	Status         OfferStatus `db:"status" json:"status"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	ExpiresAt      time.Time   `db:"expires_at" json:"expiresAt"`
	ResolvedAt     *time.Time  `db:"resolved_at" json:"resolvedAt,omitempty"`
	Version        int         `db:"version" json:"-"`
}

func NewTransferOffer(reg *Registration, code string, now time.Time, window time.Duration) *TransferOffer {
	return &TransferOffer{
		ID:             uuid.New(),
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		FromUserID:     reg.HolderID,
		Code:           code,
		Status:         OfferPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(window),
		Version:        1,
	}
}

// IsExpired is true strictly after ExpiresAt.
func (o *TransferOffer) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// EffectiveStatus is the status as observed at now: a pending offer past its
// window reads as expired even if nothing has persisted that yet.
func (o *TransferOffer) EffectiveStatus(now time.Time) OfferStatus {
	if o.Status == OfferPending && o.IsExpired(now) {
		return OfferExpired
	}
	return o.Status
}

func (o *TransferOffer) resolve(status OfferStatus, now time.Time) {
	o.Status = status
	o.ResolvedAt = &now
}

// Accept records toUserID as the winner. The caller must persist the offer
// and the reassigned registration in one atomic unit.
func (o *TransferOffer) Accept(toUserID string, now time.Time) error {
	switch o.EffectiveStatus(now) {
	case OfferPending:
	case OfferExpired:
		return ErrExpired
	default:
		return ErrNotPending
	}
	if toUserID == o.FromUserID {
		return ErrSelfTransfer
	}
	o.ToUserID = &toUserID
	o.resolve(OfferAccepted, now)
	return nil
}

func (o *TransferOffer) Cancel(byUserID string, now time.Time) error {
	if byUserID != o.FromUserID {
		return ErrNotOwner
	}
	switch o.EffectiveStatus(now) {
	case OfferPending:
	case OfferExpired:
		return ErrExpired
	default:
		return ErrNotPending
	}
	o.resolve(OfferCancelled, now)
	return nil
}

// Void cancels a pending offer on behalf of the system, for example when the
// underlying registration is cancelled.
func (o *TransferOffer) Void(now time.Time) {
	if o.Status == OfferPending {
		o.resolve(OfferCancelled, now)
	}
}

// Expire marks a lapsed pending offer as expired. It reports whether
// anything changed.
func (o *TransferOffer) Expire(now time.Time) bool {
	if o.Status != OfferPending || !o.IsExpired(now) {
		return false
	}
	o.resolve(OfferExpired, now)
	return true
}
