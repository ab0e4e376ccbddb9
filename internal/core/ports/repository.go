package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/core/domain"
)

// Lookups return domain.ErrNotFound when the row does not exist. Update
// methods are version-guarded and return domain.ErrStoreConflict when the
// row changed underneath the caller.

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Event, error)
}

type RegistrationRepository interface {
	Create(ctx context.Context, reg *domain.Registration) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	GetByCheckinCodeForUpdate(ctx context.Context, eventID uuid.UUID, code string) (*domain.Registration, error)
	FindActive(ctx context.Context, eventID uuid.UUID, holderID string) (*domain.Registration, error)
	CountByStatus(ctx context.Context, eventID uuid.UUID, status domain.RegistrationStatus) (int, error)
	MaxWaitlistPosition(ctx context.Context, eventID uuid.UUID) (int, error)
	FirstWaitlistedForUpdate(ctx context.Context, eventID uuid.UUID) (*domain.Registration, error)
	ListWaitlist(ctx context.Context, eventID uuid.UUID) ([]domain.Registration, error)
	ShiftWaitlist(ctx context.Context, eventID uuid.UUID, after int, now time.Time) error
	Update(ctx context.Context, reg *domain.Registration) error
	CheckinCodeTaken(ctx context.Context, eventID uuid.UUID, code string) (bool, error)
	RetireCheckinCode(ctx context.Context, eventID uuid.UUID, code string, registrationID uuid.UUID) error
}

type TransferOfferRepository interface {
	Create(ctx context.Context, offer *domain.TransferOffer) error
	Get(ctx context.Context, id uuid.UUID) (*domain.TransferOffer, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.TransferOffer, error)
	GetByCode(ctx context.Context, code string) (*domain.TransferOffer, error)
	FindPendingForUpdate(ctx context.Context, registrationID uuid.UUID) (*domain.TransferOffer, error)
	Update(ctx context.Context, offer *domain.TransferOffer) error
	CodeTaken(ctx context.Context, code string) (bool, error)
	ExpireLapsed(ctx context.Context, now time.Time) (int, error)
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *domain.InvitationCode) error
	GetByCode(ctx context.Context, code string) (*domain.InvitationCode, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.InvitationCode, error)
	IncrementUses(ctx context.Context, id uuid.UUID) error
	CodeTaken(ctx context.Context, code string) (bool, error)
}

// Tx exposes the repositories bound to one atomic unit.
type Tx interface {
	Events() EventRepository
	Registrations() RegistrationRepository
	Offers() TransferOfferRepository
	Invitations() InvitationRepository
}

// UnitOfWork runs fn atomically: every write fn makes is committed together
// when it returns nil and discarded otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Tx) error) error
}
