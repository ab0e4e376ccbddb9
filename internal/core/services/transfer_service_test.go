package services_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/srgjo27/eventpass/internal/core/ports/mocks"
	"github.com/srgjo27/eventpass/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTransfer_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, intPtr(5), true)
	reg := f.register(t, ev.ID, "A")
	oldCode := *reg.CheckinCode

	offer, err := f.transfer.CreateOffer(f.ctx, reg.ID, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.OfferPending, offer.Status)
	assert.Equal(t, t0.Add(30*time.Minute), offer.ExpiresAt)
	assert.Len(t, offer.Code, 10)

	f.clock.Advance(5 * time.Minute)
	moved, err := f.transfer.AcceptOffer(f.ctx, offer.ID, "B", "Bea")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, moved.ID)
	assert.Equal(t, "B", moved.HolderID)
	assert.Equal(t, "Bea", moved.AttendeeName)
	require.NotNil(t, moved.PreviousHolderID)
	assert.Equal(t, "A", *moved.PreviousHolderID)
	assert.Equal(t, t0.Add(5*time.Minute), *moved.TransferredAt)
	assert.NotEqual(t, oldCode, *moved.CheckinCode)

	got, err := f.transfer.GetOffer(f.ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferAccepted, got.Status)
	assert.Equal(t, "B", *got.ToUserID)

	_, err = f.checkin.CheckIn(f.ctx, ev.ID, oldCode)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	next, err := f.transfer.CreateOffer(f.ctx, reg.ID, "B")
	require.NoError(t, err)
	assert.NotEqual(t, offer.ID, next.ID)

	_, err = f.transfer.CreateOffer(f.ctx, reg.ID, "A")
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	in, err := f.checkin.CheckIn(f.ctx, ev.ID, *moved.CheckinCode)
	require.NoError(t, err)
	assert.Equal(t, "Bea", in.DisplayName())
}

func TestCreateOffer_Rejections(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, intPtr(1), true)
	a := f.register(t, ev.ID, "A")
	b := f.register(t, ev.ID, "B")

	_, err := f.transfer.CreateOffer(f.ctx, a.ID, "B")
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	_, err = f.transfer.CreateOffer(f.ctx, b.ID, "B")
	assert.ErrorIs(t, err, domain.ErrNotTransferable, "waitlisted")

	_, err = f.transfer.CreateOffer(f.ctx, a.ID, "A")
	require.NoError(t, err)
	_, err = f.transfer.CreateOffer(f.ctx, a.ID, "A")
	assert.ErrorIs(t, err, domain.ErrAlreadyTransferring)

	c := f.event(t, nil, false)
	reg := f.register(t, c.ID, "C")
	_, err = f.checkin.CheckIn(f.ctx, c.ID, *reg.CheckinCode)
	require.NoError(t, err)
	_, err = f.transfer.CreateOffer(f.ctx, reg.ID, "C")
	assert.ErrorIs(t, err, domain.ErrNotTransferable, "checked in")
}

func TestCreateOffer_LapsedOfferDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, nil, false)
	reg := f.register(t, ev.ID, "A")
	first, err := f.transfer.CreateOffer(f.ctx, reg.ID, "A")
	require.NoError(t, err)

	f.clock.Advance(31 * time.Minute)
	second, err := f.transfer.CreateOffer(f.ctx, reg.ID, "A")
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)

	got, err := f.transfer.GetOffer(f.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferExpired, got.Status)
}

// 30-minute window, accept at +31 minutes, no sweeper ran.
func TestAcceptOffer_ExpiresLazily(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, nil, false)
	reg := f.register(t, ev.ID, "A")
	offer, err := f.transfer.CreateOffer(f.ctx, reg.ID, "A")
	require.NoError(t, err)

	f.clock.Advance(31 * time.Minute)
	_, err = f.transfer.AcceptOffer(f.ctx, offer.ID, "B", "")
	assert.ErrorIs(t, err, domain.ErrExpired)

	got, err := f.transfer.GetOffer(f.ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferExpired, got.Status)
	assert.Equal(t, "A", f.reload(t, reg.ID).HolderID)
}

func TestAcceptOffer_ValidAtExactDeadline(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, nil, false)
	reg := f.register(t, ev.ID, "A")
	offer, err := f.transfer.CreateOffer(f.ctx, reg.ID, "A")
	require.NoError(t, err)

	f.clock.Advance(offer.ExpiresAt.Sub(f.clock.Now()))
	_, err = f.transfer.AcceptOffer(f.ctx, offer.ID, "B", "")
	assert.NoError(t, err)
}

func TestAcceptOffer_Rejections(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, nil, false)
	reg := f.register(t, ev.ID, "A")
	f.register(t, ev.ID, "D")
	offer, err := f.transfer.CreateOffer(f.ctx, reg.ID, "A")
	require.NoError(t, err)

	_, err = f.transfer.AcceptOffer(f.ctx, offer.ID, "A", "")
	assert.ErrorIs(t, err, domain.ErrSelfTransfer)

	_, err = f.transfer.AcceptOffer(f.ctx, offer.ID, "D", "")
	assert.ErrorIs(t, err, domain.ErrDuplicateRegistration)

	_, err = f.transfer.AcceptOffer(f.ctx, offer.ID, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.transfer.AcceptOffer(f.ctx, unknownEventID, "B", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.checkin.CheckIn(f.ctx, ev.ID, *reg.CheckinCode)
	require.NoError(t, err)
	_, err = f.transfer.AcceptOffer(f.ctx, offer.ID, "B", "")
	assert.ErrorIs(t, err, domain.ErrNotTransferable)

	got := f.reload(t, reg.ID)
	assert.Equal(t, "A", got.HolderID)
	assert.True(t, got.CheckedIn)
}

func TestCancelOffer(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, nil, false)
	reg := f.register(t, ev.ID, "A")
	offer, err := f.transfer.CreateOffer(f.ctx, reg.ID, "A")
	require.NoError(t, err)

	_, err = f.transfer.CancelOffer(f.ctx, offer.ID, "B")
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	cancelled, err := f.transfer.CancelOffer(f.ctx, offer.ID, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.OfferCancelled, cancelled.Status)

	_, err = f.transfer.AcceptOffer(f.ctx, offer.ID, "B", "")
	assert.ErrorIs(t, err, domain.ErrNotPending)
	_, err = f.transfer.CancelOffer(f.ctx, offer.ID, "A")
	assert.ErrorIs(t, err, domain.ErrNotPending)
}

func TestClaimByCode(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, nil, false)
	reg := f.register(t, ev.ID, "A")
	offer, err := f.transfer.CreateOffer(f.ctx, reg.ID, "A")
	require.NoError(t, err)

	_, err = f.transfer.ClaimByCode(f.ctx, "NOSUCHCODE", "B", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.transfer.GetOfferByCode(f.ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	resolved, err := f.transfer.GetOfferByCode(f.ctx, strings.ToLower(offer.Code))
	require.NoError(t, err)
	assert.Equal(t, offer.ID, resolved.ID)
	assert.Equal(t, domain.OfferPending, resolved.Status)

	other := f.register(t, ev.ID, "C")
	otherOffer, err := f.transfer.CreateOffer(f.ctx, other.ID, "C")
	require.NoError(t, err)
	moved, err := f.transfer.ClaimByCode(f.ctx, strings.ToLower(otherOffer.Code), "B", "")
	require.NoError(t, err)
	assert.Equal(t, "B", moved.HolderID)

	f.clock.Advance(31 * time.Minute)
	resolved, err = f.transfer.GetOfferByCode(f.ctx, offer.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferExpired, resolved.Status)

	_, err = f.transfer.ClaimByCode(f.ctx, offer.Code, "B", "")
	assert.ErrorIs(t, err, domain.ErrExpired)
}

// A offers; B and C accept at the same instant; one owns the ticket.
func TestScenario_RacingAcceptorsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, intPtr(10), true)
	reg := f.register(t, ev.ID, "A")
	offer, err := f.transfer.CreateOffer(f.ctx, reg.ID, "A")
	require.NoError(t, err)

	results := map[string]error{}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	start := make(chan struct{})
	for _, user := range []string{"B", "C"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			<-start
			_, err := f.transfer.AcceptOffer(f.ctx, offer.ID, user, "")
			mu.Lock()
			results[user] = err
			mu.Unlock()
		}(user)
	}
	close(start)
	wg.Wait()

	owner := f.reload(t, reg.ID).HolderID
	require.Contains(t, []string{"B", "C"}, owner)
	assert.NoError(t, results[owner])
	loser := map[string]string{"B": "C", "C": "B"}[owner]
	assert.ErrorIs(t, results[loser], domain.ErrNotPending)
}

func TestAcceptOffer_ManyConcurrentCallers(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, nil, false)
	reg := f.register(t, ev.ID, "A")
	offer, err := f.transfer.CreateOffer(f.ctx, reg.ID, "A")
	require.NoError(t, err)

	const callers = 40
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.transfer.AcceptOffer(f.ctx, offer.ID, fmt.Sprintf("user-%d", i), "")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrNotPending) || errors.Is(err, domain.ErrExpired), "unexpected %v", err)
	}
	assert.Equal(t, 1, wins)
}

func TestExpireStaleOffers(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, nil, false)
	a := f.register(t, ev.ID, "A")
	b := f.register(t, ev.ID, "B")
	_, err := f.transfer.CreateOffer(f.ctx, a.ID, "A")
	require.NoError(t, err)
	f.clock.Advance(20 * time.Minute)
	fresh, err := f.transfer.CreateOffer(f.ctx, b.ID, "B")
	require.NoError(t, err)

	f.clock.Advance(15 * time.Minute)
	n, err := f.transfer.ExpireStaleOffers(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.transfer.ExpireStaleOffers(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := f.transfer.GetOffer(f.ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferPending, got.Status)
}

func TestCreateOffer_BroadcastsAfterCommit(t *testing.T) {
	notifier := mocks.NewNotifier(t)
	f := newFixture(t, func(d *services.Deps) { d.Notifier = notifier })
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	ev := f.event(t, nil, false)
	reg := f.register(t, ev.ID, "A")

	notifier.On("BroadcastOffer", mock.Anything, mock.MatchedBy(func(o *domain.TransferOffer) bool {
		return o.RegistrationID == reg.ID && o.EventID == ev.ID
	})).Return(errors.New("publish failed")).Once()

	offer, err := f.transfer.CreateOffer(f.ctx, reg.ID, "A")
	require.NoError(t, err)
	notifier.AssertCalled(t, "Notify", mock.Anything, mock.MatchedBy(func(n domain.Notification) bool {
		return n.Type == domain.NotifyOfferCreated && n.OfferID != nil && *n.OfferID == offer.ID
	}))
}
