package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifyRegistrationConfirmed  NotificationType = "registration.confirmed"
	NotifyRegistrationWaitlisted NotificationType = "registration.waitlisted"
	NotifyRegistrationPending    NotificationType = "registration.pending"
	NotifyRegistrationPromoted   NotificationType = "registration.promoted"
	NotifyRegistrationRejected   NotificationType = "registration.rejected"
	NotifyRegistrationCancelled  NotificationType = "registration.cancelled"
	NotifyCheckedIn              NotificationType = "registration.checked_in"
	NotifyOfferCreated           NotificationType = "transfer_offer.created"
	NotifyOfferAccepted          NotificationType = "transfer_offer.accepted"
	NotifyOfferCancelled         NotificationType = "transfer_offer.cancelled"
)

// Notification is a fire-and-forget message emitted after a committed state
// transition.
type Notification struct {
	Type           NotificationType `json:"type"`
	UserID         string           `json:"userId"`
	EventID        uuid.UUID        `json:"eventId"`
	RegistrationID uuid.UUID        `json:"registrationId"`
	OfferID        *uuid.UUID       `json:"offerId,omitempty"`
	OccurredAt     time.Time        `json:"occurredAt"`
}
