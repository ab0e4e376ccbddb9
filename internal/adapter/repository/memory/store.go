// Package memory is an in-process ledger. Each unit of work runs under one
// writer lock against a private copy of the state that replaces the shared
// state only when the unit succeeds, so a failed unit leaves nothing behind.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/srgjo27/eventpass/internal/core/ports"
)

type retiredKey struct {
	eventID uuid.UUID
	code    string
}

type state struct {
	events        map[uuid.UUID]domain.Event
	registrations map[uuid.UUID]domain.Registration
	offers        map[uuid.UUID]domain.TransferOffer
	invitations   map[uuid.UUID]domain.InvitationCode
	retired       map[retiredKey]uuid.UUID
}

func newState() *state {
	return &state{
		events:        map[uuid.UUID]domain.Event{},
		registrations: map[uuid.UUID]domain.Registration{},
		offers:        map[uuid.UUID]domain.TransferOffer{},
		invitations:   map[uuid.UUID]domain.InvitationCode{},
		retired:       map[retiredKey]uuid.UUID{},
	}
}

func (s *state) clone() *state {
	return &state{
		events:        maps.Clone(s.events),
		registrations: maps.Clone(s.registrations),
		offers:        maps.Clone(s.offers),
		invitations:   maps.Clone(s.invitations),
		retired:       maps.Clone(s.retired),
	}
}

type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) Do(ctx context.Context, fn func(tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type tx struct {
	st *state
}

func (t *tx) Events() ports.EventRepository               { return eventRepo{t.st} }
func (t *tx) Registrations() ports.RegistrationRepository { return registrationRepo{t.st} }
func (t *tx) Offers() ports.TransferOfferRepository       { return offerRepo{t.st} }
func (t *tx) Invitations() ports.InvitationRepository     { return invitationRepo{t.st} }

// Stored values are copied in and out so callers never alias the state.
// Pointer fields are replaced wholesale by the domain, never mutated in
// place, so a shallow copy is enough.

type eventRepo struct{ st *state }

func (r eventRepo) Create(_ context.Context, event *domain.Event) error {
	if _, ok := r.st.events[event.ID]; ok {
		return fmt.Errorf("insert event: %w", domain.ErrStoreConflict)
	}
	r.st.events[event.ID] = *event
	return nil
}

func (r eventRepo) Get(_ context.Context, id uuid.UUID) (*domain.Event, error) {
	ev, ok := r.st.events[id]
	if !ok {
		return nil, fmt.Errorf("get event: %w", domain.ErrNotFound)
	}
	return &ev, nil
}

func (r eventRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return r.Get(ctx, id)
}

type registrationRepo struct{ st *state }

func (r registrationRepo) checkUnique(reg *domain.Registration) error {
	for id, other := range r.st.registrations {
		if id == reg.ID || other.EventID != reg.EventID {
			continue
		}
		if reg.Status.IsActive() && other.Status.IsActive() && other.HolderID == reg.HolderID {
			return domain.ErrDuplicateRegistration
		}
		if reg.CheckinCode != nil && other.CheckinCode != nil && *other.CheckinCode == *reg.CheckinCode {
			return domain.ErrStoreConflict
		}
	}
	return nil
}

func (r registrationRepo) Create(_ context.Context, reg *domain.Registration) error {
	if _, ok := r.st.registrations[reg.ID]; ok {
		return fmt.Errorf("insert registration: %w", domain.ErrStoreConflict)
	}
	if err := r.checkUnique(reg); err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	r.st.registrations[reg.ID] = *reg
	return nil
}

func (r registrationRepo) Get(_ context.Context, id uuid.UUID) (*domain.Registration, error) {
	reg, ok := r.st.registrations[id]
	if !ok {
		return nil, fmt.Errorf("get registration: %w", domain.ErrNotFound)
	}
	return &reg, nil
}

func (r registrationRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	return r.Get(ctx, id)
}

func (r registrationRepo) GetByCheckinCodeForUpdate(_ context.Context, eventID uuid.UUID, code string) (*domain.Registration, error) {
	for _, reg := range r.st.registrations {
		if reg.EventID == eventID && reg.CheckinCode != nil && *reg.CheckinCode == code {
			return &reg, nil
		}
	}
	return nil, fmt.Errorf("get registration: %w", domain.ErrNotFound)
}

func (r registrationRepo) FindActive(_ context.Context, eventID uuid.UUID, holderID string) (*domain.Registration, error) {
	for _, reg := range r.st.registrations {
		if reg.EventID == eventID && reg.HolderID == holderID && reg.Status.IsActive() {
			return &reg, nil
		}
	}
	return nil, fmt.Errorf("get registration: %w", domain.ErrNotFound)
}

func (r registrationRepo) CountByStatus(_ context.Context, eventID uuid.UUID, status domain.RegistrationStatus) (int, error) {
	n := 0
	for _, reg := range r.st.registrations {
		if reg.EventID == eventID && reg.Status == status {
			n++
		}
	}
	return n, nil
}

func (r registrationRepo) MaxWaitlistPosition(_ context.Context, eventID uuid.UUID) (int, error) {
	highest := 0
	for _, reg := range r.waitlisted(eventID) {
		if *reg.WaitlistPosition > highest {
			highest = *reg.WaitlistPosition
		}
	}
	return highest, nil
}

func (r registrationRepo) FirstWaitlistedForUpdate(_ context.Context, eventID uuid.UUID) (*domain.Registration, error) {
	list := r.waitlisted(eventID)
	if len(list) == 0 {
		return nil, fmt.Errorf("get registration: %w", domain.ErrNotFound)
	}
	return &list[0], nil
}

func (r registrationRepo) ListWaitlist(_ context.Context, eventID uuid.UUID) ([]domain.Registration, error) {
	return r.waitlisted(eventID), nil
}

func (r registrationRepo) waitlisted(eventID uuid.UUID) []domain.Registration {
	var list []domain.Registration
	for _, reg := range r.st.registrations {
		if reg.EventID == eventID && reg.Status == domain.RegistrationWaitlisted && reg.WaitlistPosition != nil {
			list = append(list, reg)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if *list[i].WaitlistPosition != *list[j].WaitlistPosition {
			return *list[i].WaitlistPosition < *list[j].WaitlistPosition
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (r registrationRepo) ShiftWaitlist(_ context.Context, eventID uuid.UUID, after int, now time.Time) error {
	for _, reg := range r.waitlisted(eventID) {
		if *reg.WaitlistPosition <= after {
			continue
		}
		pos := *reg.WaitlistPosition - 1
		reg.WaitlistPosition = &pos
		reg.Version++
		reg.UpdatedAt = now
		r.st.registrations[reg.ID] = reg
	}
	return nil
}

func (r registrationRepo) Update(_ context.Context, reg *domain.Registration) error {
	stored, ok := r.st.registrations[reg.ID]
	if !ok || stored.Version != reg.Version {
		return fmt.Errorf("update registration %s: %w", reg.ID, domain.ErrStoreConflict)
	}
	if err := r.checkUnique(reg); err != nil {
		return fmt.Errorf("update registration %s: %w", reg.ID, err)
	}
	reg.Version++
	r.st.registrations[reg.ID] = *reg
	return nil
}

func (r registrationRepo) CheckinCodeTaken(_ context.Context, eventID uuid.UUID, code string) (bool, error) {
	if _, ok := r.st.retired[retiredKey{eventID, code}]; ok {
		return true, nil
	}
	for _, reg := range r.st.registrations {
		if reg.EventID == eventID && reg.CheckinCode != nil && *reg.CheckinCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r registrationRepo) RetireCheckinCode(_ context.Context, eventID uuid.UUID, code string, registrationID uuid.UUID) error {
	key := retiredKey{eventID, code}
	if _, ok := r.st.retired[key]; ok {
		return fmt.Errorf("retire checkin code: %w", domain.ErrStoreConflict)
	}
	r.st.retired[key] = registrationID
	return nil
}

type offerRepo struct{ st *state }

func (r offerRepo) Create(_ context.Context, offer *domain.TransferOffer) error {
	for _, other := range r.st.offers {
		if other.Code == offer.Code || other.ID == offer.ID {
			return fmt.Errorf("insert transfer offer: %w", domain.ErrStoreConflict)
		}
		if offer.Status == domain.OfferPending && other.Status == domain.OfferPending && other.RegistrationID == offer.RegistrationID {
			return fmt.Errorf("insert transfer offer: %w", domain.ErrAlreadyTransferring)
		}
	}
	r.st.offers[offer.ID] = *offer
	return nil
}

func (r offerRepo) Get(_ context.Context, id uuid.UUID) (*domain.TransferOffer, error) {
	offer, ok := r.st.offers[id]
	if !ok {
		return nil, fmt.Errorf("get transfer offer: %w", domain.ErrNotFound)
	}
	return &offer, nil
}

func (r offerRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.TransferOffer, error) {
	return r.Get(ctx, id)
}

func (r offerRepo) GetByCode(_ context.Context, code string) (*domain.TransferOffer, error) {
	for _, offer := range r.st.offers {
		if offer.Code == code {
			return &offer, nil
		}
	}
	return nil, fmt.Errorf("get transfer offer: %w", domain.ErrNotFound)
}

func (r offerRepo) FindPendingForUpdate(_ context.Context, registrationID uuid.UUID) (*domain.TransferOffer, error) {
	for _, offer := range r.st.offers {
		if offer.RegistrationID == registrationID && offer.Status == domain.OfferPending {
			return &offer, nil
		}
	}
	return nil, fmt.Errorf("get transfer offer: %w", domain.ErrNotFound)
}

func (r offerRepo) Update(_ context.Context, offer *domain.TransferOffer) error {
	stored, ok := r.st.offers[offer.ID]
	if !ok || stored.Version != offer.Version {
		return fmt.Errorf("update transfer offer %s: %w", offer.ID, domain.ErrStoreConflict)
	}
	offer.Version++
	r.st.offers[offer.ID] = *offer
	return nil
}

func (r offerRepo) CodeTaken(_ context.Context, code string) (bool, error) {
	for _, offer := range r.st.offers {
		if offer.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r offerRepo) ExpireLapsed(_ context.Context, now time.Time) (int, error) {
	n := 0
	for id, offer := range r.st.offers {
		if offer.Expire(now) {
			offer.Version++
			r.st.offers[id] = offer
			n++
		}
	}
	return n, nil
}

type invitationRepo struct{ st *state }

func (r invitationRepo) Create(_ context.Context, inv *domain.InvitationCode) error {
	for _, other := range r.st.invitations {
		if other.Code == inv.Code || (other.EventID == inv.EventID && other.Channel == inv.Channel) {
			return fmt.Errorf("insert invitation code: %w", domain.ErrStoreConflict)
		}
	}
	r.st.invitations[inv.ID] = *inv
	return nil
}

func (r invitationRepo) GetByCode(_ context.Context, code string) (*domain.InvitationCode, error) {
	for _, inv := range r.st.invitations {
		if inv.Code == code {
			return &inv, nil
		}
	}
	return nil, fmt.Errorf("get invitation code: %w", domain.ErrNotFound)
}

func (r invitationRepo) ListByEvent(_ context.Context, eventID uuid.UUID) ([]domain.InvitationCode, error) {
	var list []domain.InvitationCode
	for _, inv := range r.st.invitations {
		if inv.EventID == eventID {
			list = append(list, inv)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r invitationRepo) IncrementUses(_ context.Context, id uuid.UUID) error {
	inv, ok := r.st.invitations[id]
	if !ok {
		return fmt.Errorf("increment invitation uses: %w", domain.ErrNotFound)
	}
	inv.Uses++
	r.st.invitations[id] = inv
	return nil
}

func (r invitationRepo) CodeTaken(_ context.Context, code string) (bool, error) {
	for _, inv := range r.st.invitations {
		if inv.Code == code {
			return true, nil
		}
	}
	return false, nil
}
