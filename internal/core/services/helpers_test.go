package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/srgjo27/eventpass/internal/adapter/repository/memory"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/srgjo27/eventpass/internal/core/ports"
	"github.com/srgjo27/eventpass/internal/core/services"
	"github.com/srgjo27/eventpass/internal/platform/logger"
	"github.com/stretchr/testify/require"
)

var (
	t0             = time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	unknownEventID = uuid.MustParse("00000000-0000-0000-0000-00000000dead")
)

type fixture struct {
	ctx       context.Context
	clock     *clockwork.FakeClock
	store     *memory.Store
	events    *services.EventService
	admission *services.AdmissionService
	checkin   *services.CheckinService
	transfer  *services.TransferService
	invites   *services.InvitationService
}

func newFixture(t *testing.T, mutate ...func(*services.Deps)) *fixture {
	t.Helper()
	clk := clockwork.NewFakeClockAt(t0)
	store := memory.NewStore()
	d := services.Deps{
		Store:   store,
		Clock:   clk,
		Logger:  logger.Discard(),
		Options: services.DefaultOptions(),
	}
	for _, m := range mutate {
		m(&d)
	}
	return &fixture{
		ctx:       context.Background(),
		clock:     clk,
		store:     store,
		events:    services.NewEventService(d),
		admission: services.NewAdmissionService(d),
		checkin:   services.NewCheckinService(d),
		transfer:  services.NewTransferService(d),
		invites:   services.NewInvitationService(d),
	}
}

func intPtr(n int) *int { return &n }

func (f *fixture) event(t *testing.T, capacity *int, waitlist bool) *domain.Event {
	t.Helper()
	ev, err := f.events.Create(f.ctx, services.CreateEventInput{
		Name:            "Go Meetup",
		CapacityTotal:   capacity,
		WaitlistEnabled: waitlist,
	})
	require.NoError(t, err)
	return ev
}

func (f *fixture) register(t *testing.T, eventID uuid.UUID, userID string) *domain.Registration {
	t.Helper()
	reg, err := f.admission.Register(f.ctx, services.RegisterInput{EventID: eventID, UserID: userID})
	require.NoError(t, err)
	return reg
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *domain.Registration {
	t.Helper()
	reg, err := f.admission.Get(f.ctx, id)
	require.NoError(t, err)
	return reg
}

func (f *fixture) confirmedCount(t *testing.T, eventID uuid.UUID) int {
	t.Helper()
	var n int
	err := f.store.Do(f.ctx, func(tx ports.Tx) error {
		var err error
		n, err = tx.Registrations().CountByStatus(f.ctx, eventID, domain.RegistrationConfirmed)
		return err
	})
	require.NoError(t, err)
	return n
}
