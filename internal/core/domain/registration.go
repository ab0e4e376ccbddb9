package domain

import (
	"time"

	"github.com/google/uuid"
)

type RegistrationStatus string

const (
	RegistrationPending    RegistrationStatus = "pending"
	RegistrationConfirmed  RegistrationStatus = "confirmed"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
	RegistrationRejected   RegistrationStatus = "rejected"
	RegistrationCancelled  RegistrationStatus = "cancelled"
)

// registrationTransitions is the complete set of legal status moves.
// Rejected and cancelled are terminal.
var registrationTransitions = map[RegistrationStatus][]RegistrationStatus{
	RegistrationPending:    {RegistrationConfirmed, RegistrationWaitlisted, RegistrationRejected, RegistrationCancelled},
	RegistrationWaitlisted: {RegistrationConfirmed, RegistrationCancelled},
	RegistrationConfirmed:  {RegistrationCancelled},
}

func (s RegistrationStatus) CanTransitionTo(next RegistrationStatus) bool {
	for _, allowed := range registrationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive reports whether the status still counts as the holder's claim on
// the event.
func (s RegistrationStatus) IsActive() bool {
	return s == RegistrationPending || s == RegistrationConfirmed || s == RegistrationWaitlisted
}

type Registration struct {
	ID               uuid.UUID          `db:"id" json:"id"`
	EventID          uuid.UUID          `db:"event_id" json:"eventId"`
	HolderID         string             `db:"holder_id" json:"holderId"`
	AttendeeName     string             `db:"attendee_name" json:"attendeeName"`
	Status           RegistrationStatus `db:"status" json:"status"`
	CheckedIn        bool               `db:"checked_in" json:"checkedIn"`
	CheckedInAt      *time.Time         `db:"checked_in_at" json:"checkedInAt,omitempty"`
	CheckinCode      *string            `db:"checkin_code" json:"checkinCode,omitempty"`
	WaitlistPosition *int               `db:"waitlist_position" json:"waitlistPosition,omitempty"`
	PreviousHolderID *string            `db:"previous_holder_id" json:"previousHolderId,omitempty"`
	TransferredAt    *time.Time         `db:"transferred_at" json:"transferredAt,omitempty"`
	TransferredTo    *string            `db:"transferred_to" json:"transferredTo,omitempty"`
	InvitationCodeID *uuid.UUID         `db:"invitation_code_id" json:"invitationCodeId,omitempty"`
	Version          int                `db:"version" json:"-"`
	CreatedAt        time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updatedAt"`
}

func NewRegistration(eventID uuid.UUID, holderID, attendeeName string, now time.Time) *Registration {
	return &Registration{
		ID:           uuid.New(),
		EventID:      eventID,
		HolderID:     holderID,
		AttendeeName: attendeeName,
		Status:       RegistrationPending,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// DisplayName is the name shown at the door.
func (r *Registration) DisplayName() string {
	if r.AttendeeName != "" {
		return r.AttendeeName
	}
	return r.HolderID
}

func (r *Registration) transition(next RegistrationStatus, now time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return ErrNotPending
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// Confirm moves a pending or waitlisted registration to confirmed and binds
// its check-in code.
func (r *Registration) Confirm(code string, now time.Time) error {
	if err := r.transition(RegistrationConfirmed, now); err != nil {
		return err
	}
	r.CheckinCode = &code
	r.WaitlistPosition = nil
	return nil
}

func (r *Registration) Waitlist(position int, now time.Time) error {
	if err := r.transition(RegistrationWaitlisted, now); err != nil {
		return err
	}
	r.WaitlistPosition = &position
	return nil
}

func (r *Registration) Reject(now time.Time) error {
	return r.transition(RegistrationRejected, now)
}

// Cancel ends the claim. A checked-in registration keeps its attendance
// record and cannot be cancelled.
func (r *Registration) Cancel(now time.Time) error {
	if r.CheckedIn {
		return ErrAlreadyCheckedIn
	}
	if err := r.transition(RegistrationCancelled, now); err != nil {
		return err
	}
	r.WaitlistPosition = nil
	return nil
}

// CheckIn is the one-way attendance transition.
func (r *Registration) CheckIn(now time.Time) error {
	if r.Status != RegistrationConfirmed {
		return ErrNotFound
	}
	if r.CheckedIn {
		return ErrAlreadyCheckedIn
	}
	r.CheckedIn = true
	r.CheckedInAt = &now
	r.UpdatedAt = now
	return nil
}

// EnsureTransferable validates that holderID may offer this registration.
func (r *Registration) EnsureTransferable(holderID string) error {
	if r.HolderID != holderID {
		return ErrNotOwner
	}
	if r.Status != RegistrationConfirmed || r.CheckedIn {
		return ErrNotTransferable
	}
	return nil
}

// Reassign moves ownership to a new holder and binds a fresh check-in code.
// Attendance fields are never touched.
func (r *Registration) Reassign(toUserID, attendeeName, code string, now time.Time) {
	prev := r.HolderID
	r.PreviousHolderID = &prev
	r.HolderID = toUserID
	r.AttendeeName = attendeeName
	r.TransferredTo = &toUserID
	r.TransferredAt = &now
	r.CheckinCode = &code
	r.UpdatedAt = now
}
